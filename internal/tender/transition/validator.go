// Package transition decides whether a requested lot-state change is legal.
//
// Check is a pure function over the current state, the requested state, and a
// snapshot of the lot's sub-entities. It performs no I/O, so every rule is
// unit-testable without a store.
package transition

import (
	"strings"

	"gare/internal/tender/models"
	dErrors "gare/pkg/domain-errors"
)

// Snapshot captures the sub-entity facts the state machine depends on. The
// workflow service assembles it from a single consistent read of the lot and
// its children.
type Snapshot struct {
	TechnicalApproved    bool
	EconomicApproved     bool
	HasPriceElaboration  bool
	PricePolicySatisfied bool
	OpenClarifications   int
	AwardeeCount         int
	RejectionReason      string
}

func illegal(from, to models.LotState, detail string) error {
	if detail == "" {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "transition %s → %s is not allowed", from, to)
	}
	return dErrors.Newf(dErrors.CodeInvalidTransition, "transition %s → %s is not allowed: %s", from, to, detail)
}

// Check returns nil when the lot may move from current to requested given
// the snapshot, or a descriptive coded error otherwise. It never mutates
// anything.
func Check(current, requested models.LotState, snap Snapshot) error {
	if !requested.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "unknown lot state %q", requested)
	}
	if current == requested {
		return illegal(current, requested, "lot is already in the requested state")
	}
	if current.IsTerminal() {
		return illegal(current, requested, "state is terminal")
	}

	// Rejection is reachable from any non-terminal state, reason mandatory.
	if requested == models.LotStateRejected {
		if strings.TrimSpace(snap.RejectionReason) == "" {
			return dErrors.New(dErrors.CodeEmptyReason, "rejecting a lot requires a reason")
		}
		return nil
	}

	switch current {
	case models.LotStateCreated:
		if requested == models.LotStateTechnicalEvaluation {
			return nil
		}

	case models.LotStateTechnicalEvaluation:
		if requested == models.LotStateEconomicEvaluation {
			if !snap.TechnicalApproved {
				return illegal(current, requested, "technical evaluation is not approved")
			}
			return nil
		}

	case models.LotStateEconomicEvaluation:
		if requested == models.LotStatePriceElaboration {
			if !snap.EconomicApproved {
				return illegal(current, requested, "economic evaluation is not approved")
			}
			return nil
		}

	case models.LotStatePriceElaboration:
		if requested == models.LotStateSubmitted {
			if !snap.HasPriceElaboration {
				return illegal(current, requested, "no price elaboration recorded")
			}
			if !snap.PricePolicySatisfied {
				return illegal(current, requested, "price elaboration violates the adaptation-rationale policy")
			}
			return nil
		}

	case models.LotStateSubmitted:
		if requested == models.LotStateUnderExamination {
			return nil
		}

	case models.LotStateUnderExamination:
		switch requested {
		case models.LotStateClarificationPending:
			return nil
		case models.LotStateAwarded:
			if snap.AwardeeCount != 1 {
				return illegal(current, requested, "awarding requires exactly one awardee participant")
			}
			return nil
		case models.LotStateLost, models.LotStateDiscardedByAuthority:
			return nil
		}

	case models.LotStateClarificationPending:
		if requested == models.LotStateUnderExamination {
			if snap.OpenClarifications > 0 {
				return illegal(current, requested, "open clarification requests remain")
			}
			return nil
		}
	}

	return illegal(current, requested, "")
}
