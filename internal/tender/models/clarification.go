package models

import (
	"strings"
	"time"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

// ClarificationRequest is a numbered question/answer exchange with the
// contracting authority. Open requests gate the lot's re-entry to
// examination.
//
// Invariants:
//   - SequenceNumber is unique per lot, assigned 1..N by the service
//   - a request cannot be closed before it has a response
type ClarificationRequest struct {
	ID             id.ClarificationID `json:"id"`
	LotID          id.LotID           `json:"lot_id"`
	SequenceNumber int                `json:"sequence_number"`
	RequestText    string             `json:"request_text"`
	RequestDate    time.Time          `json:"request_date"`
	ResponseText   string             `json:"response_text,omitempty"`
	ResponseDate   *time.Time         `json:"response_date,omitempty"`
	ResponderID    id.OperatorID      `json:"responder_id,omitempty"`
	Closed         bool               `json:"closed"`
	Version        int64              `json:"version"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	SoftDelete
}

// NewClarificationRequest constructs an open request with the given sequence
// number.
func NewClarificationRequest(reqID id.ClarificationID, lotID id.LotID, seq int, text string, requestDate time.Time, now time.Time) (*ClarificationRequest, error) {
	if lotID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "clarification request must belong to a lot")
	}
	if seq < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "sequence number starts at 1")
	}
	if strings.TrimSpace(text) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request text is required")
	}
	return &ClarificationRequest{
		ID:             reqID,
		LotID:          lotID,
		SequenceNumber: seq,
		RequestText:    text,
		RequestDate:    requestDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanClose checks that the request is still open and the response fields are
// complete.
func (c *ClarificationRequest) CanClose(responseText string, responder id.OperatorID) error {
	if c.Closed {
		return dErrors.New(dErrors.CodeAlreadyClosed, "clarification request is already closed")
	}
	if strings.TrimSpace(responseText) == "" || responder.IsEmpty() {
		return dErrors.New(dErrors.CodeResponseRequired, "closing a clarification request requires a response and a responder")
	}
	return nil
}

// ApplyClosure records the response and closes the request. Call CanClose
// first.
func (c *ClarificationRequest) ApplyClosure(responseText string, responseDate time.Time, responder id.OperatorID, now time.Time) {
	c.ResponseText = strings.TrimSpace(responseText)
	c.ResponseDate = &responseDate
	c.ResponderID = responder
	c.Closed = true
	c.UpdatedAt = now
}
