package models

import (
	"strings"
	"time"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

// Lot is the aggregate root for the approval workflow: an independently
// tracked unit of a tender with its own state machine.
//
// Invariants:
//   - Code is non-empty and unique within the owning tender (store-enforced)
//   - State is always a valid LotState; terminal states admit no transition
//   - RejectionReason is non-empty exactly when State is rejected
//   - Evaluation and PriceElaboration are one-to-one and travel under the
//     lot's optimistic version; every mutation to the lot or its embedded
//     sub-records bumps Version at the store boundary
//   - ExaminationStartDate is set by an operator action and only read by the
//     deadline job; setting it never transitions state by itself
//
// State-machine legality lives in the transition package, cross-entity gates
// in the gating package. The model only carries data and local invariants so
// both rule engines stay pure.
type Lot struct {
	ID                   id.LotID          `json:"id"`
	TenderID             id.TenderID       `json:"tender_id"`
	Code                 string            `json:"code"`
	Title                string            `json:"title"`
	State                LotState          `json:"state"`
	Operator             id.OperatorID     `json:"operator,omitempty"`
	ExaminationStartDate *time.Time        `json:"examination_start_date,omitempty"`
	RejectionReason      string            `json:"rejection_reason,omitempty"`
	BasePriceCents       *int64            `json:"base_price_cents,omitempty"`
	QuotedPriceCents     *int64            `json:"quoted_price_cents,omitempty"`
	Evaluation           *Evaluation       `json:"evaluation,omitempty"`
	PriceElaboration     *PriceElaboration `json:"price_elaboration,omitempty"`
	Version              int64             `json:"version"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	SoftDelete
}

// LotFilter narrows and pages lot queries.
type LotFilter struct {
	TenderID *id.TenderID
	State    *LotState
	Offset   int
	Limit    int
}

// NewLot validates inputs and constructs a lot in the created state.
func NewLot(lotID id.LotID, tenderID id.TenderID, code, title string, basePriceCents *int64, now time.Time) (*Lot, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "lot code is required")
	}
	if tenderID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "lot must belong to a tender")
	}
	return &Lot{
		ID:             lotID,
		TenderID:       tenderID,
		Code:           code,
		Title:          title,
		State:          LotStateCreated,
		BasePriceCents: basePriceCents,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyState moves the lot to a new state. Legality is decided by the
// transition validator before this is called.
func (l *Lot) ApplyState(to LotState, now time.Time) {
	l.State = to
	l.UpdatedAt = now
}

// ApplyRejection moves the lot to rejected with the mandatory reason.
func (l *Lot) ApplyRejection(reason string, now time.Time) {
	l.State = LotStateRejected
	l.RejectionReason = reason
	l.UpdatedAt = now
}

// AssignOperator records the assigned operator. Idempotent.
func (l *Lot) AssignOperator(operator id.OperatorID, now time.Time) {
	if l.Operator == operator {
		return
	}
	l.Operator = operator
	l.UpdatedAt = now
}

// SetExaminationStartDate stores the date that drives the automatic
// submitted → under-examination transition.
func (l *Lot) SetExaminationStartDate(date time.Time, now time.Time) {
	d := date
	l.ExaminationStartDate = &d
	l.UpdatedAt = now
}

// ExaminationDue reports whether the lot is submitted and its examination
// start date has been reached.
func (l *Lot) ExaminationDue(now time.Time) bool {
	return l.State == LotStateSubmitted &&
		l.ExaminationStartDate != nil &&
		!now.Before(*l.ExaminationStartDate)
}
