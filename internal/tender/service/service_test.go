package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gare/internal/notify"
	"gare/internal/tender/models"
	"gare/internal/tender/store/memory"
	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
	"gare/pkg/platform/sentinel"
	"gare/pkg/requestcontext"
)

type WorkflowSuite struct {
	suite.Suite
	svc        *Service
	lots       *memory.LotStore
	dispatcher *notify.Memory
	ctx        context.Context
	now        time.Time
	seq        int
}

func (s *WorkflowSuite) SetupTest() {
	s.lots = memory.NewLotStore()
	s.dispatcher = notify.NewMemory()
	s.svc = New(
		memory.NewTenderStore(),
		s.lots,
		memory.NewQuoteStore(),
		memory.NewParticipantStore(),
		memory.NewClarificationStore(),
		WithDispatcher(s.dispatcher),
	)
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithActorID(
		requestcontext.WithTime(context.Background(), s.now), "op-1")
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) createLot() *models.Lot {
	s.seq++
	t, err := s.svc.CreateTender(s.ctx, fmt.Sprintf("GARA-2026-%03d", s.seq), "Road maintenance", nil)
	s.Require().NoError(err)
	l, err := s.svc.CreateLot(s.ctx, t.ID, "LOT-1", "Northern section", nil)
	s.Require().NoError(err)
	return l
}

// advanceToUnderExamination drives a fresh lot through the full approval
// chain up to under-examination.
func (s *WorkflowSuite) advanceToUnderExamination(lotID id.LotID) {
	_, err := s.svc.ChangeState(s.ctx, lotID, models.LotStateTechnicalEvaluation)
	s.Require().NoError(err)
	_, err = s.svc.RecordTechnicalEvaluation(s.ctx, lotID, "op-1", true, "", "")
	s.Require().NoError(err)
	_, err = s.svc.ChangeState(s.ctx, lotID, models.LotStateEconomicEvaluation)
	s.Require().NoError(err)
	_, err = s.svc.RecordEconomicEvaluation(s.ctx, lotID, "op-1", true, "", "")
	s.Require().NoError(err)
	_, err = s.svc.ChangeState(s.ctx, lotID, models.LotStatePriceElaboration)
	s.Require().NoError(err)
	price := int64(250_000)
	_, err = s.svc.RecordPriceElaboration(s.ctx, lotID, &price, &price, "")
	s.Require().NoError(err)
	_, err = s.svc.ChangeState(s.ctx, lotID, models.LotStateSubmitted)
	s.Require().NoError(err)
	_, err = s.svc.ChangeState(s.ctx, lotID, models.LotStateUnderExamination)
	s.Require().NoError(err)
}

func (s *WorkflowSuite) TestApprovedTechnicalUnlocksEconomic() {
	l := s.createLot()
	_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateTechnicalEvaluation)
	s.Require().NoError(err)

	_, err = s.svc.RecordTechnicalEvaluation(s.ctx, l.ID, "op-1", true, "", "meets requirements")
	s.Require().NoError(err)

	rec, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateEconomicEvaluation)
	s.Require().NoError(err)
	s.Equal(models.LotStateTechnicalEvaluation.String(), rec.From)
	s.Equal(models.LotStateEconomicEvaluation.String(), rec.To)
	s.Equal(models.TriggerManual, rec.TriggeredBy)
	s.Equal(id.OperatorID("op-1"), rec.Actor)
}

func (s *WorkflowSuite) TestEconomicBlockedBeforeTechnicalApproval() {
	l := s.createLot()
	_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateTechnicalEvaluation)
	s.Require().NoError(err)

	s.Run("no technical evaluation recorded", func() {
		_, err := s.svc.RecordEconomicEvaluation(s.ctx, l.ID, "op-1", true, "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeEvaluationNotReady))
	})

	s.Run("rejected technical evaluation", func() {
		_, err := s.svc.RecordTechnicalEvaluation(s.ctx, l.ID, "op-1", false, "missing certifications", "")
		s.Require().NoError(err)
		_, err = s.svc.RecordEconomicEvaluation(s.ctx, l.ID, "op-1", true, "", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeEvaluationNotReady))
	})

	s.Run("state change blocked too", func() {
		_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateEconomicEvaluation)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *WorkflowSuite) TestRejectingEvaluationRequiresReason() {
	l := s.createLot()
	_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateTechnicalEvaluation)
	s.Require().NoError(err)

	_, err = s.svc.RecordTechnicalEvaluation(s.ctx, l.ID, "op-1", false, "", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeEmptyReason))
}

func (s *WorkflowSuite) TestPriceElaborationRationale() {
	l := s.createLot()
	_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateTechnicalEvaluation)
	s.Require().NoError(err)
	_, err = s.svc.RecordTechnicalEvaluation(s.ctx, l.ID, "op-1", true, "", "")
	s.Require().NoError(err)
	_, err = s.svc.ChangeState(s.ctx, l.ID, models.LotStateEconomicEvaluation)
	s.Require().NoError(err)
	_, err = s.svc.RecordEconomicEvaluation(s.ctx, l.ID, "op-1", true, "", "")
	s.Require().NoError(err)
	_, err = s.svc.ChangeState(s.ctx, l.ID, models.LotStatePriceElaboration)
	s.Require().NoError(err)

	desired := int64(250_000)
	actual := int64(230_000)

	s.Run("diverging prices without rationale fail", func() {
		_, err := s.svc.RecordPriceElaboration(s.ctx, l.ID, &desired, &actual, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeRationaleRequired))
	})

	s.Run("submission blocked until a valid elaboration exists", func() {
		_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateSubmitted)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("rationale unlocks submission", func() {
		_, err := s.svc.RecordPriceElaboration(s.ctx, l.ID, &desired, &actual, "negotiated volume discount")
		s.Require().NoError(err)
		_, err = s.svc.ChangeState(s.ctx, l.ID, models.LotStateSubmitted)
		s.Require().NoError(err)
	})
}

func (s *WorkflowSuite) TestRejectionFromAnyNonTerminalState() {
	s.Run("reason is mandatory", func() {
		l := s.createLot()
		_, err := s.svc.Reject(s.ctx, l.ID, "   ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeEmptyReason))
	})

	s.Run("rejection persists the reason", func() {
		l := s.createLot()
		rec, err := s.svc.Reject(s.ctx, l.ID, "supplier withdrew the offer")
		s.Require().NoError(err)
		s.Equal(models.LotStateRejected.String(), rec.To)

		got, err := s.svc.GetLot(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(models.LotStateRejected, got.State)
		s.Equal("supplier withdrew the offer", got.RejectionReason)
	})

	s.Run("terminal lots cannot be rejected again", func() {
		l := s.createLot()
		_, err := s.svc.Reject(s.ctx, l.ID, "first rejection")
		s.Require().NoError(err)
		_, err = s.svc.Reject(s.ctx, l.ID, "second rejection")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *WorkflowSuite) TestClarificationLoop() {
	l := s.createLot()
	s.advanceToUnderExamination(l.ID)

	req1, rec, err := s.svc.OpenClarificationRequest(s.ctx, l.ID, "please detail the safety plan", s.now)
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.Equal(models.LotStateClarificationPending.String(), rec.To)
	s.Equal(models.TriggerAutomatic, rec.TriggeredBy)
	s.Equal(1, req1.SequenceNumber)

	req2, rec, err := s.svc.OpenClarificationRequest(s.ctx, l.ID, "confirm delivery schedule", s.now)
	s.Require().NoError(err)
	s.Nil(rec, "second request keeps the lot where it is")
	s.Equal(2, req2.SequenceNumber)

	s.Run("closing one of two keeps the gate shut", func() {
		_, rec, err := s.svc.CloseClarificationRequest(s.ctx, req1.ID, "plan attached", s.now, "op-2")
		s.Require().NoError(err)
		s.Nil(rec)

		got, err := s.svc.GetLot(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(models.LotStateClarificationPending, got.State)
	})

	s.Run("closing the last request reopens examination", func() {
		closed, rec, err := s.svc.CloseClarificationRequest(s.ctx, req2.ID, "schedule confirmed", s.now, "op-2")
		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.Equal(models.LotStateUnderExamination.String(), rec.To)
		s.Equal(models.TriggerAutomatic, rec.TriggeredBy)
		s.True(closed.Closed)

		got, err := s.svc.GetLot(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal(models.LotStateUnderExamination, got.State)
	})

	s.Run("closing without a response fails", func() {
		req, _, err := s.svc.OpenClarificationRequest(s.ctx, l.ID, "one more question", s.now)
		s.Require().NoError(err)
		s.Equal(3, req.SequenceNumber)

		_, _, err = s.svc.CloseClarificationRequest(s.ctx, req.ID, "", s.now, "op-2")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeResponseRequired))
	})
}

func (s *WorkflowSuite) TestClarificationOnlyWhileExamined() {
	l := s.createLot()
	_, _, err := s.svc.OpenClarificationRequest(s.ctx, l.ID, "premature question", s.now)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *WorkflowSuite) TestSingleAwardeeSwap() {
	l := s.createLot()
	bidderA, err := models.FreeTextBidder("Impresa Alfa")
	s.Require().NoError(err)
	bidderB, err := models.KnownSubjectBidder(id.NewSubjectID())
	s.Require().NoError(err)

	pa, err := s.svc.AddParticipant(s.ctx, l.ID, bidderA)
	s.Require().NoError(err)
	pb, err := s.svc.AddParticipant(s.ctx, l.ID, bidderB)
	s.Require().NoError(err)

	countAwardees := func() (int, id.ParticipantID) {
		list, err := s.svc.participants.ListByLot(s.ctx, l.ID)
		s.Require().NoError(err)
		var n int
		var winner id.ParticipantID
		for _, p := range list {
			if p.IsAwardee {
				n++
				winner = p.ID
			}
		}
		return n, winner
	}

	s.Require().NoError(s.svc.SetAwardee(s.ctx, l.ID, pa.ID))
	n, winner := countAwardees()
	s.Equal(1, n)
	s.Equal(pa.ID, winner)

	s.Require().NoError(s.svc.SetAwardee(s.ctx, l.ID, pb.ID))
	n, winner = countAwardees()
	s.Equal(1, n)
	s.Equal(pb.ID, winner)

	s.Run("idempotent re-award", func() {
		s.Require().NoError(s.svc.SetAwardee(s.ctx, l.ID, pb.ID))
		n, winner := countAwardees()
		s.Equal(1, n)
		s.Equal(pb.ID, winner)
	})

	s.Run("authority-rejected participant cannot win", func() {
		_, err := s.svc.RejectParticipantByAuthority(s.ctx, pa.ID)
		s.Require().NoError(err)
		err = s.svc.SetAwardee(s.ctx, l.ID, pa.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidParticipantState))
	})
}

func (s *WorkflowSuite) TestAwardRequiresExactlyOneAwardee() {
	l := s.createLot()
	s.advanceToUnderExamination(l.ID)

	_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateAwarded)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	bidder, err := models.FreeTextBidder("Impresa Alfa")
	s.Require().NoError(err)
	p, err := s.svc.AddParticipant(s.ctx, l.ID, bidder)
	s.Require().NoError(err)
	s.Require().NoError(s.svc.SetAwardee(s.ctx, l.ID, p.ID))

	rec, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateAwarded)
	s.Require().NoError(err)
	s.Equal(models.LotStateAwarded.String(), rec.To)
}

func (s *WorkflowSuite) TestTenderAutoClosesWhenAllLotsTerminal() {
	t, err := s.svc.CreateTender(s.ctx, "GARA-2026-002", "Bridge inspection", nil)
	s.Require().NoError(err)
	l1, err := s.svc.CreateLot(s.ctx, t.ID, "LOT-1", "North span", nil)
	s.Require().NoError(err)
	l2, err := s.svc.CreateLot(s.ctx, t.ID, "LOT-2", "South span", nil)
	s.Require().NoError(err)

	_, err = s.svc.Reject(s.ctx, l1.ID, "budget exceeded")
	s.Require().NoError(err)
	got, err := s.svc.tenders.Get(s.ctx, t.ID)
	s.Require().NoError(err)
	s.True(got.IsOpen(), "tender stays open while a lot is live")

	_, err = s.svc.Reject(s.ctx, l2.ID, "budget exceeded")
	s.Require().NoError(err)
	got, err = s.svc.tenders.Get(s.ctx, t.ID)
	s.Require().NoError(err)
	s.False(got.IsOpen(), "last terminal lot closes the tender")
}

func (s *WorkflowSuite) TestCreateLotOnClosedTender() {
	t, err := s.svc.CreateTender(s.ctx, "GARA-2026-003", "Archived works", nil)
	s.Require().NoError(err)
	_, err = s.svc.CloseTender(s.ctx, t.ID)
	s.Require().NoError(err)

	_, err = s.svc.CreateLot(s.ctx, t.ID, "LOT-1", "Too late", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *WorkflowSuite) TestDuplicateLotCode() {
	l := s.createLot()
	_, err := s.svc.CreateLot(s.ctx, l.TenderID, "lot-1", "Case-insensitive duplicate", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *WorkflowSuite) TestExclusiveQuoteSelection() {
	l := s.createLot()
	expiry := s.now.AddDate(0, 1, 0)

	newValidQuote := func() *models.Quote {
		q, err := s.svc.RegisterQuote(s.ctx, l.ID, id.NewSubjectID(), s.now, &expiry, 0)
		s.Require().NoError(err)
		price := int64(90_000)
		_, err = s.svc.MarkQuoteReceived(s.ctx, q.ID, &price)
		s.Require().NoError(err)
		_, err = s.svc.MarkQuoteValid(s.ctx, q.ID)
		s.Require().NoError(err)
		return q
	}
	q1, q2, q3 := newValidQuote(), newValidQuote(), newValidQuote()

	// Non-exclusive selection may stack.
	_, err := s.svc.ToggleQuoteSelected(s.ctx, q1.ID)
	s.Require().NoError(err)
	_, err = s.svc.ToggleQuoteSelected(s.ctx, q2.ID)
	s.Require().NoError(err)

	_, err = s.svc.SelectQuoteExclusive(s.ctx, q3.ID)
	s.Require().NoError(err)

	quotes, err := s.svc.ListQuotes(s.ctx, l.ID)
	s.Require().NoError(err)
	selected := map[id.QuoteID]bool{}
	for _, q := range quotes {
		if q.State == models.QuoteStateSelected {
			selected[q.ID] = true
		}
	}
	s.Len(selected, 1)
	s.True(selected[q3.ID])
}

func (s *WorkflowSuite) TestDeletionGating() {
	s.Run("lot with a quote cannot be deleted", func() {
		l := s.createLot()
		_, err := s.svc.RegisterQuote(s.ctx, l.ID, id.NewSubjectID(), s.now, nil, 0)
		s.Require().NoError(err)

		err = s.svc.DeleteLot(s.ctx, l.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("bare lot deletes and disappears from reads", func() {
		l := s.createLot()
		s.Require().NoError(s.svc.DeleteLot(s.ctx, l.ID))

		_, err := s.svc.GetLot(s.ctx, l.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("tender with a live lot cannot be deleted", func() {
		l := s.createLot()
		err := s.svc.DeleteTender(s.ctx, l.TenderID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *WorkflowSuite) TestExaminationDateOnTerminalLot() {
	l := s.createLot()
	_, err := s.svc.Reject(s.ctx, l.ID, "withdrawn")
	s.Require().NoError(err)

	err = s.svc.SetExaminationStartDate(s.ctx, l.ID, s.now.AddDate(0, 0, 7))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *WorkflowSuite) TestStateChangesAreDispatched() {
	l := s.createLot()
	_, err := s.svc.ChangeState(s.ctx, l.ID, models.LotStateTechnicalEvaluation)
	s.Require().NoError(err)
	_, err = s.svc.Reject(s.ctx, l.ID, "supplier unreachable")
	s.Require().NoError(err)

	records := s.dispatcher.Records()
	s.Require().Len(records, 2)
	s.Equal(l.ID, records[0].LotID)
	s.Equal(models.LotStateCreated.String(), records[0].From)
	s.Equal(models.LotStateRejected.String(), records[1].To)
}

func (s *WorkflowSuite) TestConcurrentWriteConflict() {
	l := s.createLot()

	stale, err := s.lots.Get(s.ctx, l.ID)
	s.Require().NoError(err)
	fresh, err := s.lots.Get(s.ctx, l.ID)
	s.Require().NoError(err)

	fresh.Title = "renamed"
	s.Require().NoError(s.lots.Update(s.ctx, fresh))

	stale.Title = "lost update"
	err = s.lots.Update(s.ctx, stale)
	s.Require().ErrorIs(err, sentinel.ErrVersionConflict)

	s.Run("service maps the conflict to a domain code", func() {
		err := wrapStoreErr(err, "lot")
		s.True(dErrors.HasCode(err, dErrors.CodeConcurrencyConflict))
	})
}
