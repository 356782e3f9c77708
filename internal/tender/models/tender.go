package models

import (
	"strings"
	"time"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

// Tender is a procurement call, subdivided into independently progressing lots.
//
// Invariants:
//   - Code is non-empty and unique across tenders (enforced by the store)
//   - Status transitions: open → closed only; closed is terminal
//   - A tender may be closed manually, or automatically once every
//     non-deleted lot has reached a terminal state
//   - A tender cannot be deleted while any non-deleted lot exists
//     (enforced at the service layer via the gating rules)
type Tender struct {
	ID                 id.TenderID   `json:"id"`
	Code               string        `json:"code"`
	Title              string        `json:"title"`
	Status             TenderStatus  `json:"status"`
	SubmissionDeadline *time.Time    `json:"submission_deadline,omitempty"`
	ClosedAt           *time.Time    `json:"closed_at,omitempty"`
	ClosedBy           id.OperatorID `json:"closed_by,omitempty"`
	Version            int64         `json:"version"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	SoftDelete
}

// NewTender validates inputs and constructs an open tender.
func NewTender(tenderID id.TenderID, code, title string, deadline *time.Time, now time.Time) (*Tender, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tender code is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "tender title is required")
	}
	return &Tender{
		ID:                 tenderID,
		Code:               code,
		Title:              title,
		Status:             TenderStatusOpen,
		SubmissionDeadline: deadline,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (t *Tender) IsOpen() bool { return t.Status == TenderStatusOpen }

// CanClose checks the open → closed transition.
func (t *Tender) CanClose() error {
	if t.Status == TenderStatusClosed {
		return dErrors.New(dErrors.CodeInvariantViolation, "tender is already closed")
	}
	return nil
}

// ApplyClosure transitions the tender to closed and stamps closure metadata.
// Call CanClose first.
func (t *Tender) ApplyClosure(actor id.OperatorID, now time.Time) {
	t.Status = TenderStatusClosed
	t.ClosedAt = &now
	t.ClosedBy = actor
	t.UpdatedAt = now
}
