package gating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

func approvedTechnical(t *testing.T) *models.Evaluation {
	t.Helper()
	eval := &models.Evaluation{}
	require.NoError(t, eval.RecordTechnical("op-1", true, "", "", time.Now()))
	return eval
}

func TestEconomicAllowed(t *testing.T) {
	t.Run("nil evaluation is not ready", func(t *testing.T) {
		err := EconomicAllowed(nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEvaluationNotReady))
	})

	t.Run("unrecorded technical phase is not ready", func(t *testing.T) {
		err := EconomicAllowed(&models.Evaluation{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEvaluationNotReady))
	})

	t.Run("rejected technical phase is not ready", func(t *testing.T) {
		eval := &models.Evaluation{}
		require.NoError(t, eval.RecordTechnical("op-1", false, "incomplete documentation", "", time.Now()))
		err := EconomicAllowed(eval)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEvaluationNotReady))
	})

	t.Run("approved technical phase passes", func(t *testing.T) {
		require.NoError(t, EconomicAllowed(approvedTechnical(t)))
	})
}

func TestAwardeeAllowed(t *testing.T) {
	bidder, err := models.FreeTextBidder("Rossi Costruzioni")
	require.NoError(t, err)
	p, err := models.NewParticipant(id.NewParticipantID(), id.NewLotID(), bidder, time.Now())
	require.NoError(t, err)

	require.NoError(t, AwardeeAllowed(p))

	p.ApplyAuthorityRejection(time.Now())
	err = AwardeeAllowed(p)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParticipantState))
}

func TestClarificationGate(t *testing.T) {
	require.NoError(t, ClarificationGate(0))

	err := ClarificationGate(2)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func TestPriceRationale(t *testing.T) {
	desired := int64(100_000)
	same := int64(100_000)
	diverged := int64(92_500)

	tests := []struct {
		name            string
		desired, actual *int64
		rationale       string
		wantErr         bool
	}{
		{name: "equal prices need no rationale", desired: &desired, actual: &same},
		{name: "diverging prices with rationale", desired: &desired, actual: &diverged, rationale: "market discount applied"},
		{name: "diverging prices without rationale", desired: &desired, actual: &diverged, wantErr: true},
		{name: "whitespace rationale counts as missing", desired: &desired, actual: &diverged, rationale: "  ", wantErr: true},
		{name: "missing actual price needs no rationale", desired: &desired},
		{name: "nothing set", rationale: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PriceRationale(tt.desired, tt.actual, tt.rationale)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeRationaleRequired))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDeletionGuards(t *testing.T) {
	require.NoError(t, LotDeletable(0, 0, 0))
	require.NoError(t, TenderDeletable(0))

	for _, counts := range [][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		err := LotDeletable(counts[0], counts[1], counts[2])
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	}

	err := TenderDeletable(3)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}
