package models

import (
	"time"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

// Quote is a supplier's priced response to a lot, with its own
// expiry/renewal lifecycle: pending → received → valid → selected, or
// expired when the expiry date passes without closure.
//
// Selection is non-exclusive: several quotes of the same lot may be selected
// simultaneously. The service exposes a distinct exclusive-select operation
// that deselects siblings first; both exist because call sites differ in
// intent.
type Quote struct {
	ID              id.QuoteID   `json:"id"`
	LotID           id.LotID     `json:"lot_id"`
	SupplierID      id.SubjectID `json:"supplier_id"`
	State           QuoteState   `json:"state"`
	PriceCents      *int64       `json:"price_cents,omitempty"`
	RequestDate     time.Time    `json:"request_date"`
	ExpiryDate      *time.Time   `json:"expiry_date,omitempty"`
	AutoRenewalDays int          `json:"auto_renewal_days,omitempty"`
	Version         int64        `json:"version"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	SoftDelete
}

// NewQuote constructs a pending quote for a lot.
func NewQuote(quoteID id.QuoteID, lotID id.LotID, supplierID id.SubjectID, requestDate time.Time, expiry *time.Time, autoRenewalDays int, now time.Time) (*Quote, error) {
	if lotID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "quote must belong to a lot")
	}
	if supplierID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "quote requires a supplier subject")
	}
	if autoRenewalDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "auto-renewal days must not be negative")
	}
	return &Quote{
		ID:              quoteID,
		LotID:           lotID,
		SupplierID:      supplierID,
		State:           QuoteStatePending,
		RequestDate:     requestDate,
		ExpiryDate:      expiry,
		AutoRenewalDays: autoRenewalDays,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (q *Quote) transitionErr(to QuoteState) error {
	return dErrors.Newf(dErrors.CodeInvalidTransition, "quote cannot move from %s to %s", q.State, to)
}

// MarkReceived records the supplier's response: pending → received.
func (q *Quote) MarkReceived(priceCents *int64, now time.Time) error {
	if q.State != QuoteStatePending {
		return q.transitionErr(QuoteStateReceived)
	}
	q.State = QuoteStateReceived
	q.PriceCents = priceCents
	q.UpdatedAt = now
	return nil
}

// MarkValid accepts a received quote: received → valid.
func (q *Quote) MarkValid(now time.Time) error {
	if q.State != QuoteStateReceived {
		return q.transitionErr(QuoteStateValid)
	}
	q.State = QuoteStateValid
	q.UpdatedAt = now
	return nil
}

// ToggleSelected flips valid ⇄ selected without touching siblings.
func (q *Quote) ToggleSelected(now time.Time) error {
	switch q.State {
	case QuoteStateValid:
		q.State = QuoteStateSelected
	case QuoteStateSelected:
		q.State = QuoteStateValid
	default:
		return q.transitionErr(QuoteStateSelected)
	}
	q.UpdatedAt = now
	return nil
}

// Select moves valid → selected. Selecting an already selected quote is a
// no-op so exclusive selection stays idempotent.
func (q *Quote) Select(now time.Time) error {
	switch q.State {
	case QuoteStateSelected:
		return nil
	case QuoteStateValid:
		q.State = QuoteStateSelected
		q.UpdatedAt = now
		return nil
	}
	return q.transitionErr(QuoteStateSelected)
}

// Deselect moves selected → valid; a no-op for any other state.
func (q *Quote) Deselect(now time.Time) {
	if q.State != QuoteStateSelected {
		return
	}
	q.State = QuoteStateValid
	q.UpdatedAt = now
}

// ExpiryDue reports whether the quote is valid and its expiry date has
// passed.
func (q *Quote) ExpiryDue(now time.Time) bool {
	return q.State == QuoteStateValid && q.ExpiryDate != nil && q.ExpiryDate.Before(now)
}

// AutoRenews reports whether the quote renews instead of expiring.
func (q *Quote) AutoRenews() bool { return q.AutoRenewalDays > 0 }

// Renew pushes the expiry forward in whole renewal windows until it lands
// after now, keeping the same identity and the valid state. Advancing past
// now is what makes repeated expiry scans converge instead of renewing the
// same quote on every run.
func (q *Quote) Renew(now time.Time) {
	if q.ExpiryDate == nil || !q.AutoRenews() {
		return
	}
	next := q.ExpiryDate.AddDate(0, 0, q.AutoRenewalDays)
	for !next.After(now) {
		next = next.AddDate(0, 0, q.AutoRenewalDays)
	}
	q.ExpiryDate = &next
	q.UpdatedAt = now
}

// Expire moves the quote to expired.
func (q *Quote) Expire(now time.Time) {
	q.State = QuoteStateExpired
	q.UpdatedAt = now
}
