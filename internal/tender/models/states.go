package models

// LotState is the lot workflow state.
type LotState string

const (
	LotStateCreated              LotState = "created"
	LotStateTechnicalEvaluation  LotState = "technical_evaluation"
	LotStateEconomicEvaluation   LotState = "economic_evaluation"
	LotStatePriceElaboration     LotState = "price_elaboration"
	LotStateSubmitted            LotState = "submitted"
	LotStateUnderExamination     LotState = "under_examination"
	LotStateClarificationPending LotState = "clarification_pending"
	LotStateAwarded              LotState = "awarded"
	LotStateLost                 LotState = "lost"
	LotStateRejected             LotState = "rejected"
	LotStateDiscardedByAuthority LotState = "discarded_by_authority"
)

// IsTerminal reports whether the state admits no further transitions.
func (s LotState) IsTerminal() bool {
	switch s {
	case LotStateAwarded, LotStateLost, LotStateRejected, LotStateDiscardedByAuthority:
		return true
	}
	return false
}

// IsValid reports whether s is a known lot state.
func (s LotState) IsValid() bool {
	switch s {
	case LotStateCreated, LotStateTechnicalEvaluation, LotStateEconomicEvaluation,
		LotStatePriceElaboration, LotStateSubmitted, LotStateUnderExamination,
		LotStateClarificationPending, LotStateAwarded, LotStateLost,
		LotStateRejected, LotStateDiscardedByAuthority:
		return true
	}
	return false
}

func (s LotState) String() string { return string(s) }

// TenderStatus is the tender's own small lifecycle.
type TenderStatus string

const (
	TenderStatusOpen   TenderStatus = "open"
	TenderStatusClosed TenderStatus = "closed"
)

// QuoteState is the quote sub-lifecycle state.
type QuoteState string

const (
	QuoteStatePending  QuoteState = "pending"
	QuoteStateReceived QuoteState = "received"
	QuoteStateValid    QuoteState = "valid"
	QuoteStateSelected QuoteState = "selected"
	QuoteStateExpired  QuoteState = "expired"
)

func (s QuoteState) String() string { return string(s) }

// Trigger distinguishes operator-driven changes from job-driven ones.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerAutomatic Trigger = "automatic"
)
