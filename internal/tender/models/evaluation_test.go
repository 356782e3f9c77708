package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gare/pkg/domain-errors"
)

func TestEvaluationPhaseRecording(t *testing.T) {
	now := time.Now()

	t.Run("approval records evaluator and timestamp", func(t *testing.T) {
		var ev Evaluation
		require.NoError(t, ev.RecordTechnical("op-1", true, "", "looks solid", now))
		require.True(t, ev.Technical.IsSet())
		require.True(t, ev.Technical.IsApproved())
		require.Equal(t, now, *ev.Technical.RecordedAt)
	})

	t.Run("rejection requires a reason", func(t *testing.T) {
		var ev Evaluation
		err := ev.RecordTechnical("op-1", false, "   ", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyReason))
		require.False(t, ev.Technical.IsSet())

		err = ev.RecordEconomic("op-1", false, "", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeEmptyReason))
	})
}

func TestTechnicalReRejectionClearsEconomic(t *testing.T) {
	now := time.Now()
	var ev Evaluation
	require.NoError(t, ev.RecordTechnical("op-1", true, "", "", now))
	require.NoError(t, ev.RecordEconomic("op-2", true, "", "", now))
	require.True(t, ev.Economic.IsSet())

	require.NoError(t, ev.RecordTechnical("op-1", false, "specs not met on review", "", now))
	require.False(t, ev.Technical.IsApproved())
	require.False(t, ev.Economic.IsSet(), "economic phase must not survive technical un-approval")

	t.Run("re-approval leaves economic unset until re-recorded", func(t *testing.T) {
		require.NoError(t, ev.RecordTechnical("op-1", true, "", "", now))
		require.False(t, ev.Economic.IsSet())
	})
}
