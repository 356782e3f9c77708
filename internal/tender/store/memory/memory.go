// Package memory provides in-memory store implementations. They are the
// default substrate for tests and single-node development runs; the
// PostgreSQL implementations in the sibling postgres package are wire
// compatible.
//
// Every read path applies the explicit not-deleted predicate; every write
// checks the optimistic version and bumps it, so services see the same
// concurrency semantics as against SQL.
package memory

import (
	"time"

	"gare/internal/tender/models"
)

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyInt64Ptr(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyBoolPtr(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func clonePhase(p models.EvaluationPhase) models.EvaluationPhase {
	p.Approved = copyBoolPtr(p.Approved)
	p.RecordedAt = copyTimePtr(p.RecordedAt)
	return p
}

func cloneLot(l *models.Lot) *models.Lot {
	c := *l
	c.ExaminationStartDate = copyTimePtr(l.ExaminationStartDate)
	c.BasePriceCents = copyInt64Ptr(l.BasePriceCents)
	c.QuotedPriceCents = copyInt64Ptr(l.QuotedPriceCents)
	c.DeletedAt = copyTimePtr(l.DeletedAt)
	if l.Evaluation != nil {
		ev := models.Evaluation{
			Technical: clonePhase(l.Evaluation.Technical),
			Economic:  clonePhase(l.Evaluation.Economic),
		}
		c.Evaluation = &ev
	}
	if l.PriceElaboration != nil {
		pe := *l.PriceElaboration
		pe.DesiredPriceCents = copyInt64Ptr(l.PriceElaboration.DesiredPriceCents)
		pe.ActualExitCents = copyInt64Ptr(l.PriceElaboration.ActualExitCents)
		pe.RecordedAt = copyTimePtr(l.PriceElaboration.RecordedAt)
		c.PriceElaboration = &pe
	}
	return &c
}

func cloneTender(t *models.Tender) *models.Tender {
	c := *t
	c.SubmissionDeadline = copyTimePtr(t.SubmissionDeadline)
	c.ClosedAt = copyTimePtr(t.ClosedAt)
	c.DeletedAt = copyTimePtr(t.DeletedAt)
	return &c
}

func cloneQuote(q *models.Quote) *models.Quote {
	c := *q
	c.PriceCents = copyInt64Ptr(q.PriceCents)
	c.ExpiryDate = copyTimePtr(q.ExpiryDate)
	c.DeletedAt = copyTimePtr(q.DeletedAt)
	return &c
}

func cloneParticipant(p *models.Participant) *models.Participant {
	c := *p
	c.DeletedAt = copyTimePtr(p.DeletedAt)
	return &c
}

func cloneClarification(cr *models.ClarificationRequest) *models.ClarificationRequest {
	c := *cr
	c.ResponseDate = copyTimePtr(cr.ResponseDate)
	c.DeletedAt = copyTimePtr(cr.DeletedAt)
	return &c
}
