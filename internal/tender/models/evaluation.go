package models

import (
	"strings"
	"time"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

// EvaluationPhase is one of the two independent approval phases of a lot
// evaluation. Approved is tri-state: nil means the phase has not been
// recorded yet.
type EvaluationPhase struct {
	Evaluator       id.OperatorID `json:"evaluator,omitempty"`
	Approved        *bool         `json:"approved,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	RecordedAt      *time.Time    `json:"recorded_at,omitempty"`
}

// IsApproved reports whether the phase has been recorded as approved.
func (p EvaluationPhase) IsApproved() bool {
	return p.Approved != nil && *p.Approved
}

// IsSet reports whether the phase has been recorded at all.
func (p EvaluationPhase) IsSet() bool { return p.Approved != nil }

// Evaluation is the technical/economic approval pair, one-to-one with a lot.
//
// Invariants:
//   - the economic phase is never set while the technical phase stands
//     unapproved: gating blocks RecordEconomic until technical approval, and
//     re-recording the technical phase as rejected clears the economic phase
//   - rejecting either phase requires a reason
type Evaluation struct {
	Technical EvaluationPhase `json:"technical"`
	Economic  EvaluationPhase `json:"economic"`
}

func validatePhase(approved bool, reason string) error {
	if !approved && strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeEmptyReason, "rejecting an evaluation phase requires a reason")
	}
	return nil
}

// RecordTechnical upserts the technical phase. Re-recording it as rejected
// clears any economic phase so the economic phase is never set while the
// technical phase stands unapproved.
func (e *Evaluation) RecordTechnical(evaluator id.OperatorID, approved bool, reason, notes string, now time.Time) error {
	if err := validatePhase(approved, reason); err != nil {
		return err
	}
	e.Technical = EvaluationPhase{
		Evaluator:       evaluator,
		Approved:        &approved,
		RejectionReason: strings.TrimSpace(reason),
		Notes:           notes,
		RecordedAt:      &now,
	}
	if !approved {
		e.Economic = EvaluationPhase{}
	}
	return nil
}

// RecordEconomic upserts the economic phase. Callers must have passed the
// technical-before-economic gate.
func (e *Evaluation) RecordEconomic(evaluator id.OperatorID, approved bool, reason, notes string, now time.Time) error {
	if err := validatePhase(approved, reason); err != nil {
		return err
	}
	e.Economic = EvaluationPhase{
		Evaluator:       evaluator,
		Approved:        &approved,
		RejectionReason: strings.TrimSpace(reason),
		Notes:           notes,
		RecordedAt:      &now,
	}
	return nil
}

// PriceElaboration is the desired-vs-actual pricing record, one-to-one with
// a lot.
//
// Invariant: when both prices are set and differ, AdaptationRationale is
// mandatory.
type PriceElaboration struct {
	DesiredPriceCents   *int64     `json:"desired_price_cents,omitempty"`
	ActualExitCents     *int64     `json:"actual_exit_cents,omitempty"`
	AdaptationRationale string     `json:"adaptation_rationale,omitempty"`
	RecordedAt          *time.Time `json:"recorded_at,omitempty"`
}

// PricesDiverge reports whether both prices are set and unequal.
func (p PriceElaboration) PricesDiverge() bool {
	return p.DesiredPriceCents != nil && p.ActualExitCents != nil &&
		*p.DesiredPriceCents != *p.ActualExitCents
}
