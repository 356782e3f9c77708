package service

import (
	"context"
	"time"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/requestcontext"
)

// RegisterQuote records a pending quote request to a supplier for a lot.
func (s *Service) RegisterQuote(ctx context.Context, lotID id.LotID, supplierID id.SubjectID, requestDate time.Time, expiry *time.Time, autoRenewalDays int) (*models.Quote, error) {
	if _, err := s.lots.Get(ctx, lotID); err != nil {
		return nil, wrapStoreErr(err, "lot")
	}
	q, err := models.NewQuote(id.NewQuoteID(), lotID, supplierID, requestDate, expiry, autoRenewalDays, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.observeRejection(err)
	}
	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, wrapStoreErr(err, "quote")
	}
	return q, nil
}

func (s *Service) mutateQuote(ctx context.Context, quoteID id.QuoteID, mutate func(*models.Quote) error) (*models.Quote, error) {
	q, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, wrapStoreErr(err, "quote")
	}
	if err := mutate(q); err != nil {
		return nil, s.observeRejection(err)
	}
	if err := s.quotes.Update(ctx, q); err != nil {
		return nil, wrapStoreErr(err, "quote")
	}
	return q, nil
}

// MarkQuoteReceived records the supplier's response.
func (s *Service) MarkQuoteReceived(ctx context.Context, quoteID id.QuoteID, priceCents *int64) (*models.Quote, error) {
	now := requestcontext.Now(ctx)
	return s.mutateQuote(ctx, quoteID, func(q *models.Quote) error {
		return q.MarkReceived(priceCents, now)
	})
}

// MarkQuoteValid accepts a received quote.
func (s *Service) MarkQuoteValid(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error) {
	now := requestcontext.Now(ctx)
	return s.mutateQuote(ctx, quoteID, func(q *models.Quote) error {
		return q.MarkValid(now)
	})
}

// ToggleQuoteSelected flips the selection of one quote without affecting
// siblings. Selection is non-exclusive: several quotes of a lot may be
// selected at once.
func (s *Service) ToggleQuoteSelected(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error) {
	now := requestcontext.Now(ctx)
	return s.mutateQuote(ctx, quoteID, func(q *models.Quote) error {
		return q.ToggleSelected(now)
	})
}

// SelectQuoteExclusive selects the target quote and deselects every sibling
// of the same lot in one lock scope. Exposed separately from
// ToggleQuoteSelected because call sites differ in intent.
func (s *Service) SelectQuoteExclusive(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error) {
	target, err := s.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, wrapStoreErr(err, "quote")
	}
	siblings, err := s.quotes.ListByLot(ctx, target.LotID)
	if err != nil {
		return nil, wrapStoreErr(err, "quotes")
	}

	now := requestcontext.Now(ctx)
	if err := target.Select(now); err != nil {
		return nil, s.observeRejection(err)
	}
	changed := []*models.Quote{target}
	for _, q := range siblings {
		if q.ID == target.ID {
			continue
		}
		if q.State == models.QuoteStateSelected {
			q.Deselect(now)
			changed = append(changed, q)
		}
	}
	if err := s.quotes.UpdateAll(ctx, changed); err != nil {
		return nil, wrapStoreErr(err, "quotes")
	}
	return target, nil
}

// ListQuotes returns the non-deleted quotes of a lot.
func (s *Service) ListQuotes(ctx context.Context, lotID id.LotID) ([]*models.Quote, error) {
	quotes, err := s.quotes.ListByLot(ctx, lotID)
	if err != nil {
		return nil, wrapStoreErr(err, "quotes")
	}
	return quotes, nil
}
