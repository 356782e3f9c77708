// Package service orchestrates the lot approval workflow: it applies the
// transition validator and the gating rules, persists results, and emits
// state-change records for downstream notification.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gare/internal/tender/gating"
	tendermetrics "gare/internal/tender/metrics"
	"gare/internal/tender/models"
	"gare/internal/tender/transition"
	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
	"gare/pkg/platform/sentinel"
	"gare/pkg/requestcontext"
)

// Service is the lot workflow service. All mutating operations run under the
// single-writer-per-entity discipline: stores enforce optimistic versioning
// and surface stale writes as concurrency conflicts for the caller to retry.
type Service struct {
	tenders        TenderStore
	lots           LotStore
	quotes         QuoteStore
	participants   ParticipantStore
	clarifications ClarificationStore
	emitter        *changeEmitter
	metrics        *tendermetrics.Metrics
	logger         *slog.Logger
}

// New constructs the workflow service.
func New(tenders TenderStore, lots LotStore, quotes QuoteStore, participants ParticipantStore, clarifications ClarificationStore, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Service{
		tenders:        tenders,
		lots:           lots,
		quotes:         quotes,
		participants:   participants,
		clarifications: clarifications,
		emitter:        newChangeEmitter(cfg.logger, cfg.dispatcher),
		metrics:        cfg.metrics,
		logger:         cfg.logger,
	}
}

// wrapStoreErr translates infrastructure sentinels into domain errors.
// Domain errors produced below the store boundary pass through unchanged.
func wrapStoreErr(err error, entity string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Newf(dErrors.CodeNotFound, "%s not found", entity)
	case errors.Is(err, sentinel.ErrVersionConflict):
		return dErrors.Newf(dErrors.CodeConcurrencyConflict, "%s was modified concurrently, retry with a fresh read", entity)
	case errors.Is(err, sentinel.ErrDuplicate):
		return dErrors.Newf(dErrors.CodeConflict, "%s already exists", entity)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure on "+entity)
}

func (s *Service) observeRejection(err error) error {
	if err != nil && s.metrics != nil {
		s.metrics.ObserveRejection(string(dErrors.CodeOf(err)))
	}
	return err
}

// -----------------------------------------------------------------------------
// Tender lifecycle
// -----------------------------------------------------------------------------

// CreateTender registers a new open tender.
func (s *Service) CreateTender(ctx context.Context, code, title string, submissionDeadline *time.Time) (*models.Tender, error) {
	t, err := models.NewTender(id.NewTenderID(), code, title, submissionDeadline, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.observeRejection(err)
	}
	if err := s.tenders.Create(ctx, t); err != nil {
		return nil, wrapStoreErr(err, "tender")
	}
	return t, nil
}

// CloseTender closes a tender manually.
func (s *Service) CloseTender(ctx context.Context, tenderID id.TenderID) (*models.Tender, error) {
	t, err := s.tenders.Get(ctx, tenderID)
	if err != nil {
		return nil, wrapStoreErr(err, "tender")
	}
	if err := t.CanClose(); err != nil {
		return nil, s.observeRejection(err)
	}
	t.ApplyClosure(requestcontext.ActorID(ctx), requestcontext.Now(ctx))
	if err := s.tenders.Update(ctx, t); err != nil {
		return nil, wrapStoreErr(err, "tender")
	}
	return t, nil
}

// maybeCloseTender closes the owning tender once every non-deleted lot is
// terminal. Called after a lot reaches a terminal state; best-effort, a
// failure here never fails the lot transition that triggered it.
func (s *Service) maybeCloseTender(ctx context.Context, tenderID id.TenderID) {
	lots, err := s.lots.List(ctx, LotFilter{TenderID: &tenderID})
	if err != nil || len(lots) == 0 {
		return
	}
	for _, l := range lots {
		if !l.State.IsTerminal() {
			return
		}
	}
	t, err := s.tenders.Get(ctx, tenderID)
	if err != nil || !t.IsOpen() {
		return
	}
	t.ApplyClosure(requestcontext.ActorID(ctx), requestcontext.Now(ctx))
	if err := s.tenders.Update(ctx, t); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "automatic tender closure failed",
			"tender_id", tenderID.String(), "error", err)
	}
}

// DeleteTender soft-deletes a tender. Blocked while any live lot exists.
func (s *Service) DeleteTender(ctx context.Context, tenderID id.TenderID) error {
	if _, err := s.tenders.Get(ctx, tenderID); err != nil {
		return wrapStoreErr(err, "tender")
	}
	lotCount, err := s.lots.CountByTender(ctx, tenderID)
	if err != nil {
		return wrapStoreErr(err, "lots")
	}
	if err := gating.TenderDeletable(lotCount); err != nil {
		return s.observeRejection(err)
	}
	if err := s.tenders.SoftDelete(ctx, tenderID, requestcontext.ActorID(ctx), requestcontext.Now(ctx)); err != nil {
		return wrapStoreErr(err, "tender")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Lot lifecycle
// -----------------------------------------------------------------------------

// CreateLot registers a lot under a tender. The lot code must be unique
// within the tender.
func (s *Service) CreateLot(ctx context.Context, tenderID id.TenderID, code, title string, basePriceCents *int64) (*models.Lot, error) {
	t, err := s.tenders.Get(ctx, tenderID)
	if err != nil {
		return nil, wrapStoreErr(err, "tender")
	}
	if !t.IsOpen() {
		return nil, s.observeRejection(dErrors.New(dErrors.CodeInvariantViolation, "cannot add lots to a closed tender"))
	}
	l, err := models.NewLot(id.NewLotID(), tenderID, code, title, basePriceCents, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.observeRejection(err)
	}
	if err := s.lots.Create(ctx, l); err != nil {
		return nil, wrapStoreErr(err, "lot")
	}
	return l, nil
}

// GetLot retrieves a lot by id.
func (s *Service) GetLot(ctx context.Context, lotID id.LotID) (*models.Lot, error) {
	l, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return nil, wrapStoreErr(err, "lot")
	}
	return l, nil
}

// ListLots queries lots with filtering and paging.
func (s *Service) ListLots(ctx context.Context, filter LotFilter) ([]*models.Lot, error) {
	lots, err := s.lots.List(ctx, filter)
	if err != nil {
		return nil, wrapStoreErr(err, "lots")
	}
	return lots, nil
}

// AssignOperator assigns an operator to a lot. Idempotent.
func (s *Service) AssignOperator(ctx context.Context, lotID id.LotID, operator id.OperatorID) error {
	if operator.IsEmpty() {
		return s.observeRejection(dErrors.New(dErrors.CodeValidation, "operator id is required"))
	}
	now := requestcontext.Now(ctx)
	_, err := s.lots.Execute(ctx, lotID,
		func(*models.Lot) error { return nil },
		func(l *models.Lot) { l.AssignOperator(operator, now) },
	)
	if err != nil {
		return wrapStoreErr(err, "lot")
	}
	return nil
}

// SetExaminationStartDate stores the examination start date. The transition
// it drives is applied later by the deadline re-evaluation job, never here.
func (s *Service) SetExaminationStartDate(ctx context.Context, lotID id.LotID, date time.Time) error {
	now := requestcontext.Now(ctx)
	_, err := s.lots.Execute(ctx, lotID,
		func(l *models.Lot) error {
			if l.State.IsTerminal() {
				return dErrors.New(dErrors.CodeInvariantViolation, "cannot schedule examination for a terminal lot")
			}
			return nil
		},
		func(l *models.Lot) { l.SetExaminationStartDate(date, now) },
	)
	if err != nil {
		return s.observeRejection(wrapStoreErr(err, "lot"))
	}
	return nil
}

// Reject moves a lot from any non-terminal state to rejected. The reason is
// mandatory.
func (s *Service) Reject(ctx context.Context, lotID id.LotID, reason string) (models.StateChangeRecord, error) {
	if strings.TrimSpace(reason) == "" {
		return models.StateChangeRecord{}, s.observeRejection(
			dErrors.New(dErrors.CodeEmptyReason, "rejecting a lot requires a reason"))
	}
	return s.applyTransition(ctx, lotID, models.LotStateRejected, models.TriggerManual, reason)
}

// ChangeState requests a manual lot-state transition. On success the new
// state is persisted and a state-change record returned; on failure the
// rejection reason is returned without side effects.
func (s *Service) ChangeState(ctx context.Context, lotID id.LotID, requested models.LotState) (models.StateChangeRecord, error) {
	return s.applyTransition(ctx, lotID, requested, models.TriggerManual, "")
}

// DeleteLot soft-deletes a lot. Blocked while any live quote, participant,
// or clarification request exists.
func (s *Service) DeleteLot(ctx context.Context, lotID id.LotID) error {
	if _, err := s.lots.Get(ctx, lotID); err != nil {
		return wrapStoreErr(err, "lot")
	}
	quoteCount, err := s.quotes.CountByLot(ctx, lotID)
	if err != nil {
		return wrapStoreErr(err, "quotes")
	}
	participantCount, err := s.participants.CountByLot(ctx, lotID)
	if err != nil {
		return wrapStoreErr(err, "participants")
	}
	clarificationCount, err := s.clarifications.CountByLot(ctx, lotID)
	if err != nil {
		return wrapStoreErr(err, "clarification requests")
	}
	if err := gating.LotDeletable(quoteCount, participantCount, clarificationCount); err != nil {
		return s.observeRejection(err)
	}
	if err := s.lots.SoftDelete(ctx, lotID, requestcontext.ActorID(ctx), requestcontext.Now(ctx)); err != nil {
		return wrapStoreErr(err, "lot")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Transition core
// -----------------------------------------------------------------------------

// snapshot assembles the sub-entity facts the transition validator needs.
func (s *Service) snapshot(ctx context.Context, l *models.Lot) (transition.Snapshot, error) {
	snap := transition.Snapshot{
		HasPriceElaboration: l.PriceElaboration != nil,
	}
	if l.Evaluation != nil {
		snap.TechnicalApproved = l.Evaluation.Technical.IsApproved()
		snap.EconomicApproved = l.Evaluation.Economic.IsApproved()
	}
	if l.PriceElaboration != nil {
		pe := l.PriceElaboration
		snap.PricePolicySatisfied = gating.PriceRationale(pe.DesiredPriceCents, pe.ActualExitCents, pe.AdaptationRationale) == nil
	}
	open, err := s.clarifications.CountOpen(ctx, l.ID)
	if err != nil {
		return snap, wrapStoreErr(err, "clarification requests")
	}
	snap.OpenClarifications = open

	participants, err := s.participants.ListByLot(ctx, l.ID)
	if err != nil {
		return snap, wrapStoreErr(err, "participants")
	}
	for _, p := range participants {
		if p.IsAwardee {
			snap.AwardeeCount++
		}
	}
	return snap, nil
}

// applyTransition is the single mutation path for lot state: read, validate
// against a snapshot, persist under the optimistic version, emit the record.
func (s *Service) applyTransition(ctx context.Context, lotID id.LotID, to models.LotState, trigger models.Trigger, reason string) (models.StateChangeRecord, error) {
	l, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return models.StateChangeRecord{}, wrapStoreErr(err, "lot")
	}
	snap, err := s.snapshot(ctx, l)
	if err != nil {
		return models.StateChangeRecord{}, err
	}
	snap.RejectionReason = reason

	if err := transition.Check(l.State, to, snap); err != nil {
		return models.StateChangeRecord{}, s.observeRejection(err)
	}

	from := l.State
	now := requestcontext.Now(ctx)
	if to == models.LotStateRejected {
		l.ApplyRejection(strings.TrimSpace(reason), now)
	} else {
		l.ApplyState(to, now)
	}
	if err := s.lots.Update(ctx, l); err != nil {
		return models.StateChangeRecord{}, wrapStoreErr(err, "lot")
	}

	rec := models.LotChange(lotID, from, to, now, trigger, requestcontext.ActorID(ctx))
	if s.metrics != nil {
		s.metrics.ObserveTransition(from.String(), to.String(), string(trigger))
	}
	s.emitter.emit(ctx, rec)

	if to.IsTerminal() {
		s.maybeCloseTender(ctx, l.TenderID)
	}
	return rec, nil
}
