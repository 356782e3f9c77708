// Package notify transports state-change records to downstream consumers.
// The core only produces records; resolving recipients and formatting
// messages happens outside this module.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"gare/internal/tender/models"
)

// Dispatcher accepts a batch of state-change records for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, records []models.StateChangeRecord) error
}

// Memory captures dispatched records for tests.
type Memory struct {
	mu      sync.Mutex
	records []models.StateChangeRecord
}

// NewMemory returns an in-memory dispatcher.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Dispatch(_ context.Context, records []models.StateChangeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

// Records returns a copy of everything dispatched so far.
func (m *Memory) Records() []models.StateChangeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StateChangeRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Logging logs each record instead of delivering it. Used when no broker is
// configured.
type Logging struct {
	logger *slog.Logger
}

// NewLogging returns a dispatcher that logs records at info level.
func NewLogging(logger *slog.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) Dispatch(ctx context.Context, records []models.StateChangeRecord) error {
	for _, rec := range records {
		l.logger.InfoContext(ctx, "state change",
			"lot_id", rec.LotID.String(),
			"from", rec.From,
			"to", rec.To,
			"triggered_by", string(rec.TriggeredBy),
		)
	}
	return nil
}
