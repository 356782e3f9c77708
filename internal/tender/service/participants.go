package service

import (
	"context"

	"gare/internal/tender/gating"
	"gare/internal/tender/models"
	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
	"gare/pkg/requestcontext"
)

// AddParticipant records a bidder against a lot. The bidder reference is the
// tagged union constructed via models.KnownSubjectBidder or
// models.FreeTextBidder.
func (s *Service) AddParticipant(ctx context.Context, lotID id.LotID, bidder models.Bidder) (*models.Participant, error) {
	if _, err := s.lots.Get(ctx, lotID); err != nil {
		return nil, wrapStoreErr(err, "lot")
	}
	p, err := models.NewParticipant(id.NewParticipantID(), lotID, bidder, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.observeRejection(err)
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, wrapStoreErr(err, "participant")
	}
	return p, nil
}

// SetAwardee flags a participant as the lot's awardee and, in the same
// operation, clears the flag from every sibling so at most one non-deleted
// participant per lot carries it.
func (s *Service) SetAwardee(ctx context.Context, lotID id.LotID, participantID id.ParticipantID) error {
	siblings, err := s.participants.ListByLot(ctx, lotID)
	if err != nil {
		return wrapStoreErr(err, "participants")
	}

	var target *models.Participant
	for _, p := range siblings {
		if p.ID == participantID {
			target = p
			break
		}
	}
	if target == nil {
		return dErrors.New(dErrors.CodeNotFound, "participant not found on this lot")
	}
	if err := gating.AwardeeAllowed(target); err != nil {
		return s.observeRejection(err)
	}

	now := requestcontext.Now(ctx)
	changed := make([]*models.Participant, 0, len(siblings))
	for _, p := range siblings {
		if p.ID != participantID && p.IsAwardee {
			p.ClearAward(now)
			changed = append(changed, p)
		}
	}
	if !target.IsAwardee {
		target.ApplyAward(now)
		changed = append(changed, target)
	}
	if len(changed) == 0 {
		return nil
	}
	if err := s.participants.UpdateAll(ctx, changed); err != nil {
		return wrapStoreErr(err, "participants")
	}
	return nil
}

// RejectParticipantByAuthority flags a participant as rejected by the
// contracting authority. Mutually exclusive with the awardee flag.
func (s *Service) RejectParticipantByAuthority(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	p, err := s.participants.Get(ctx, participantID)
	if err != nil {
		return nil, wrapStoreErr(err, "participant")
	}
	if err := p.CanRejectByAuthority(); err != nil {
		return nil, s.observeRejection(err)
	}
	p.ApplyAuthorityRejection(requestcontext.Now(ctx))
	if err := s.participants.Update(ctx, p); err != nil {
		return nil, wrapStoreErr(err, "participant")
	}
	return p, nil
}
