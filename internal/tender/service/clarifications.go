package service

import (
	"context"
	"time"

	"gare/internal/tender/gating"
	"gare/internal/tender/models"
	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
	"gare/pkg/requestcontext"
)

// OpenClarificationRequest records a new question from the contracting
// authority, assigns it the next per-lot sequence number, and moves the lot
// to clarification-pending when it was under examination.
//
// The returned record is nil when the lot was already clarification-pending
// (the new request only widens the existing gate).
func (s *Service) OpenClarificationRequest(ctx context.Context, lotID id.LotID, requestText string, requestDate time.Time) (*models.ClarificationRequest, *models.StateChangeRecord, error) {
	l, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return nil, nil, wrapStoreErr(err, "lot")
	}
	if l.State != models.LotStateUnderExamination && l.State != models.LotStateClarificationPending {
		return nil, nil, s.observeRejection(dErrors.Newf(dErrors.CodeInvariantViolation,
			"clarification requests can only be opened while the lot is under examination, not in %s", l.State))
	}

	seq, err := s.clarifications.NextSequence(ctx, lotID)
	if err != nil {
		return nil, nil, wrapStoreErr(err, "clarification requests")
	}
	req, err := models.NewClarificationRequest(id.NewClarificationID(), lotID, seq, requestText, requestDate, requestcontext.Now(ctx))
	if err != nil {
		return nil, nil, s.observeRejection(err)
	}
	if err := s.clarifications.Create(ctx, req); err != nil {
		return nil, nil, wrapStoreErr(err, "clarification request")
	}

	if l.State == models.LotStateClarificationPending {
		return req, nil, nil
	}
	rec, err := s.applyTransition(ctx, lotID, models.LotStateClarificationPending, models.TriggerAutomatic, "")
	if err != nil {
		return nil, nil, err
	}
	return req, &rec, nil
}

// CloseClarificationRequest records the response and closes the request.
// When the closure satisfies the gate (no open requests remain) the lot is
// automatically moved back to under-examination and the resulting record
// returned; otherwise the record is nil and the lot stays put.
func (s *Service) CloseClarificationRequest(ctx context.Context, reqID id.ClarificationID, responseText string, responseDate time.Time, responder id.OperatorID) (*models.ClarificationRequest, *models.StateChangeRecord, error) {
	req, err := s.clarifications.Get(ctx, reqID)
	if err != nil {
		return nil, nil, wrapStoreErr(err, "clarification request")
	}
	if err := req.CanClose(responseText, responder); err != nil {
		return nil, nil, s.observeRejection(err)
	}
	req.ApplyClosure(responseText, responseDate, responder, requestcontext.Now(ctx))
	if err := s.clarifications.Update(ctx, req); err != nil {
		return nil, nil, wrapStoreErr(err, "clarification request")
	}

	rec, err := s.reexamineAfterClosure(ctx, req.LotID)
	if err != nil {
		return nil, nil, err
	}
	return req, rec, nil
}

// reexamineAfterClosure re-checks the clarification gate and advances the
// lot when every request is closed. Shared with the deadline job's safety
// scan for lots whose earlier automatic check was missed.
func (s *Service) reexamineAfterClosure(ctx context.Context, lotID id.LotID) (*models.StateChangeRecord, error) {
	l, err := s.lots.Get(ctx, lotID)
	if err != nil {
		return nil, wrapStoreErr(err, "lot")
	}
	if l.State != models.LotStateClarificationPending {
		return nil, nil
	}
	open, err := s.clarifications.CountOpen(ctx, lotID)
	if err != nil {
		return nil, wrapStoreErr(err, "clarification requests")
	}
	if gating.ClarificationGate(open) != nil {
		return nil, nil
	}
	rec, err := s.applyTransition(ctx, lotID, models.LotStateUnderExamination, models.TriggerAutomatic, "")
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
