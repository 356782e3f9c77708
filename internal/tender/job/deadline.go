// Package job implements the deadline re-evaluation batch: the scheduled,
// idempotent process that applies time-based automatic transitions.
package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	tendermetrics "gare/internal/tender/metrics"
	"gare/internal/tender/models"
	"gare/internal/tender/service"
	id "gare/pkg/domain"
)

// Workflow is the slice of the workflow service the job drives.
type Workflow interface {
	ListLots(ctx context.Context, filter service.LotFilter) ([]*models.Lot, error)
	AdvanceExamination(ctx context.Context, lotID id.LotID) (*models.StateChangeRecord, error)
	ReexamineClarifications(ctx context.Context, lotID id.LotID) (*models.StateChangeRecord, error)
	ListExpiryDueQuotes(ctx context.Context) ([]*models.Quote, error)
	ProcessQuoteExpiry(ctx context.Context, quoteID id.QuoteID) (*models.StateChangeRecord, error)
}

// Result aggregates one run for the invoker: per-item counts plus the
// state-change records for downstream notification.
type Result struct {
	Processed int
	Failed    int
	Changes   []models.StateChangeRecord
}

// Deadline is the re-evaluation job. The external scheduler invokes Run
// under a distributed lock so only one instance executes cluster-wide;
// within a run, items are independent and processed with bounded
// parallelism.
type Deadline struct {
	workflow    Workflow
	logger      *slog.Logger
	metrics     *tendermetrics.Metrics
	parallelism int
}

// Option configures the job.
type Option func(*Deadline)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deadline) { d.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *tendermetrics.Metrics) Option {
	return func(d *Deadline) { d.metrics = m }
}

// WithParallelism bounds concurrent item processing within one run.
func WithParallelism(n int) Option {
	return func(d *Deadline) {
		if n > 0 {
			d.parallelism = n
		}
	}
}

// NewDeadline constructs the job.
func NewDeadline(workflow Workflow, opts ...Option) *Deadline {
	d := &Deadline{workflow: workflow, parallelism: 4}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// collector gathers per-item outcomes across goroutines.
type collector struct {
	mu      sync.Mutex
	result  Result
	logger  *slog.Logger
	jobName string
}

func (c *collector) ok(rec *models.StateChangeRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Processed++
	if rec != nil {
		c.result.Changes = append(c.result.Changes, *rec)
	}
}

func (c *collector) fail(ctx context.Context, item string, err error) {
	c.mu.Lock()
	c.result.Failed++
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.ErrorContext(ctx, "deadline job item failed",
			"job", c.jobName, "item", item, "error", err)
	}
}

// Run executes one pass: due examination starts, quote expiry/renewal, and
// the clarification-gate safety scan. One failing item never aborts the
// batch; scan errors themselves (a store outage, not a bad record) do.
func (d *Deadline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.ObserveJobRun(start)
		}
	}()

	col := &collector{logger: d.logger, jobName: "deadline-reevaluation"}

	if err := d.scanExaminations(ctx, col); err != nil {
		return col.result, err
	}
	if err := d.scanQuotes(ctx, col); err != nil {
		return col.result, err
	}
	if err := d.scanClarificationGates(ctx, col); err != nil {
		return col.result, err
	}

	if d.metrics != nil {
		d.metrics.AddJobResults(col.result.Processed, col.result.Failed)
	}
	if d.logger != nil {
		d.logger.InfoContext(ctx, "deadline job run complete",
			"processed", col.result.Processed,
			"failed", col.result.Failed,
			"changes", len(col.result.Changes),
			"duration", time.Since(start),
		)
	}
	return col.result, nil
}

func (d *Deadline) scanExaminations(ctx context.Context, col *collector) error {
	state := models.LotStateSubmitted
	lots, err := d.workflow.ListLots(ctx, service.LotFilter{State: &state})
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for _, l := range lots {
		lotID := l.ID
		g.Go(func() error {
			rec, err := d.workflow.AdvanceExamination(gctx, lotID)
			if err != nil {
				col.fail(gctx, "lot "+lotID.String(), err)
				return nil
			}
			if rec != nil {
				col.ok(rec)
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Deadline) scanQuotes(ctx context.Context, col *collector) error {
	quotes, err := d.workflow.ListExpiryDueQuotes(ctx)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for _, q := range quotes {
		quoteID := q.ID
		g.Go(func() error {
			rec, err := d.workflow.ProcessQuoteExpiry(gctx, quoteID)
			if err != nil {
				col.fail(gctx, "quote "+quoteID.String(), err)
				return nil
			}
			// Renewals keep the valid state and yield no record but still
			// count as processed work.
			col.ok(rec)
			return nil
		})
	}
	return g.Wait()
}

func (d *Deadline) scanClarificationGates(ctx context.Context, col *collector) error {
	state := models.LotStateClarificationPending
	lots, err := d.workflow.ListLots(ctx, service.LotFilter{State: &state})
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for _, l := range lots {
		lotID := l.ID
		g.Go(func() error {
			rec, err := d.workflow.ReexamineClarifications(gctx, lotID)
			if err != nil {
				col.fail(gctx, "lot "+lotID.String(), err)
				return nil
			}
			if rec != nil {
				col.ok(rec)
			}
			return nil
		})
	}
	return g.Wait()
}
