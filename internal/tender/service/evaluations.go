package service

import (
	"context"

	"gare/internal/tender/gating"
	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/requestcontext"
)

// RecordTechnicalEvaluation upserts the technical phase of the lot's
// evaluation, creating the evaluation record if absent.
func (s *Service) RecordTechnicalEvaluation(ctx context.Context, lotID id.LotID, evaluator id.OperatorID, approved bool, reason, notes string) (*models.Lot, error) {
	now := requestcontext.Now(ctx)
	probe := models.Evaluation{}
	l, err := s.lots.Execute(ctx, lotID,
		func(l *models.Lot) error {
			if err := probe.RecordTechnical(evaluator, approved, reason, notes, now); err != nil {
				return err
			}
			return nil
		},
		func(l *models.Lot) {
			if l.Evaluation == nil {
				l.Evaluation = &models.Evaluation{}
			}
			l.Evaluation.Technical = probe.Technical
			l.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.observeRejection(wrapStoreErr(err, "lot"))
	}
	return l, nil
}

// RecordEconomicEvaluation upserts the economic phase. Fails with
// evaluation-not-ready while the technical phase is not approved.
func (s *Service) RecordEconomicEvaluation(ctx context.Context, lotID id.LotID, evaluator id.OperatorID, approved bool, reason, notes string) (*models.Lot, error) {
	now := requestcontext.Now(ctx)
	probe := models.Evaluation{}
	l, err := s.lots.Execute(ctx, lotID,
		func(l *models.Lot) error {
			if err := gating.EconomicAllowed(l.Evaluation); err != nil {
				return err
			}
			return probe.RecordEconomic(evaluator, approved, reason, notes, now)
		},
		func(l *models.Lot) {
			l.Evaluation.Economic = probe.Economic
			l.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.observeRejection(wrapStoreErr(err, "lot"))
	}
	return l, nil
}

// RecordPriceElaboration upserts the lot's price elaboration, enforcing the
// adaptation-rationale invariant.
func (s *Service) RecordPriceElaboration(ctx context.Context, lotID id.LotID, desiredCents, actualCents *int64, rationale string) (*models.Lot, error) {
	now := requestcontext.Now(ctx)
	l, err := s.lots.Execute(ctx, lotID,
		func(l *models.Lot) error {
			return gating.PriceRationale(desiredCents, actualCents, rationale)
		},
		func(l *models.Lot) {
			l.PriceElaboration = &models.PriceElaboration{
				DesiredPriceCents:   desiredCents,
				ActualExitCents:     actualCents,
				AdaptationRationale: rationale,
				RecordedAt:          &now,
			}
			l.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.observeRejection(wrapStoreErr(err, "lot"))
	}
	return l, nil
}
