package service

import (
	"context"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/requestcontext"
)

// Automatic operations invoked by the deadline re-evaluation job. Each is
// idempotent: once the transition it applies has happened, the triggering
// predicate is false and the call reports nothing to do.

// AdvanceExamination moves a submitted lot to under-examination when its
// examination start date has been reached. Returns a nil record when the lot
// is not due.
func (s *Service) AdvanceExamination(ctx context.Context, lotID id.LotID) (*models.StateChangeRecord, error) {
	l, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return nil, wrapStoreErr(err, "lot")
	}
	if !l.ExaminationDue(requestcontext.Now(ctx)) {
		return nil, nil
	}
	rec, err := s.applyTransition(ctx, lotID, models.LotStateUnderExamination, models.TriggerAutomatic, "")
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReexamineClarifications re-checks the clarification gate for a
// clarification-pending lot and advances it when every request is closed.
// Covers gate checks missed at closure time.
func (s *Service) ReexamineClarifications(ctx context.Context, lotID id.LotID) (*models.StateChangeRecord, error) {
	return s.reexamineAfterClosure(ctx, lotID)
}

// ProcessQuoteExpiry handles one valid quote whose expiry date has passed:
// auto-renewal pushes the expiry forward keeping the same identity, otherwise
// the quote expires. Returns a nil record when the quote is no longer due.
func (s *Service) ProcessQuoteExpiry(ctx context.Context, quoteID id.QuoteID) (*models.StateChangeRecord, error) {
	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, wrapStoreErr(err, "quote")
	}
	now := requestcontext.Now(ctx)
	if !q.ExpiryDue(now) {
		return nil, nil
	}

	from := q.State
	if q.AutoRenews() {
		q.Renew(now)
	} else {
		q.Expire(now)
	}
	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, wrapStoreErr(err, "quote")
	}
	if q.State == from {
		// Renewal keeps the valid state; nothing to notify.
		return nil, nil
	}
	rec := models.QuoteChange(q.LotID, q.ID, from, q.State, now, models.TriggerAutomatic)
	s.emitter.emit(ctx, rec)
	return &rec, nil
}

// ListExpiryDueQuotes exposes the job's quote scan.
func (s *Service) ListExpiryDueQuotes(ctx context.Context) ([]*models.Quote, error) {
	quotes, err := s.quotes.ListExpiryDue(ctx, requestcontext.Now(ctx))
	if err != nil {
		return nil, wrapStoreErr(err, "quotes")
	}
	return quotes, nil
}
