// Package gating holds the cross-entity predicates that guard workflow
// operations. Like the transition validator these are pure functions over
// snapshots; the workflow service gathers the inputs and applies the result.
package gating

import (
	"strings"

	"gare/internal/tender/models"
	dErrors "gare/pkg/domain-errors"
)

// EconomicAllowed enforces technical-before-economic: an economic evaluation
// may only be written once the technical phase is approved.
func EconomicAllowed(eval *models.Evaluation) error {
	if eval == nil || !eval.Technical.IsApproved() {
		return dErrors.New(dErrors.CodeEvaluationNotReady, "economic evaluation requires an approved technical evaluation")
	}
	return nil
}

// AwardeeAllowed checks the target side of the single-awardee rule. Clearing
// the flag from siblings happens in the same service operation.
func AwardeeAllowed(target *models.Participant) error {
	return target.CanAward()
}

// ClarificationGate reports whether the lot may leave clarification-pending.
// The gate counts open requests; their content is irrelevant.
func ClarificationGate(openRequests int) error {
	if openRequests > 0 {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "%d clarification request(s) still open", openRequests)
	}
	return nil
}

// PriceRationale enforces the adaptation-rationale invariant on a price
// elaboration write: diverging prices demand a non-empty rationale.
func PriceRationale(desired, actual *int64, rationale string) error {
	if desired != nil && actual != nil && *desired != *actual && strings.TrimSpace(rationale) == "" {
		return dErrors.New(dErrors.CodeRationaleRequired, "desired and actual exit price differ; an adaptation rationale is required")
	}
	return nil
}

// LotDeletable guards lot deletion: any live quote, participant, or
// clarification request blocks it.
func LotDeletable(quotes, participants, clarifications int) error {
	if quotes > 0 || participants > 0 || clarifications > 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"lot cannot be deleted: %d quote(s), %d participant(s), %d clarification request(s) exist",
			quotes, participants, clarifications)
	}
	return nil
}

// TenderDeletable guards tender deletion: any live lot blocks it.
func TenderDeletable(lots int) error {
	if lots > 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "tender cannot be deleted: %d lot(s) exist", lots)
	}
	return nil
}
