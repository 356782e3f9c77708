package models

import (
	"time"

	id "gare/pkg/domain"
)

// StateChangeRecord describes one applied state change for downstream
// notification. The core produces these; the notification dispatcher
// resolves and delivers messages.
//
// QuoteID is set when the change concerns a quote sub-entity (expiry,
// renewal); From/To then carry quote states.
type StateChangeRecord struct {
	LotID       id.LotID      `json:"lot_id"`
	QuoteID     id.QuoteID    `json:"quote_id,omitempty"`
	From        string        `json:"from"`
	To          string        `json:"to"`
	OccurredAt  time.Time     `json:"occurred_at"`
	TriggeredBy Trigger       `json:"triggered_by"`
	Actor       id.OperatorID `json:"actor,omitempty"`
}

// LotChange builds a record for a lot transition.
func LotChange(lotID id.LotID, from, to LotState, at time.Time, trigger Trigger, actor id.OperatorID) StateChangeRecord {
	return StateChangeRecord{
		LotID:       lotID,
		From:        from.String(),
		To:          to.String(),
		OccurredAt:  at,
		TriggeredBy: trigger,
		Actor:       actor,
	}
}

// QuoteChange builds a record for a quote sub-entity transition.
func QuoteChange(lotID id.LotID, quoteID id.QuoteID, from, to QuoteState, at time.Time, trigger Trigger) StateChangeRecord {
	return StateChangeRecord{
		LotID:       lotID,
		QuoteID:     quoteID,
		From:        from.String(),
		To:          to.String(),
		OccurredAt:  at,
		TriggeredBy: trigger,
	}
}
