package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gare/pkg/domain-errors"
)

func TestParseRoundTrip(t *testing.T) {
	lotID := NewLotID()
	parsed, err := ParseLotID(lotID.String())
	require.NoError(t, err)
	require.Equal(t, lotID, parsed)

	tenderID := NewTenderID()
	parsedTender, err := ParseTenderID(tenderID.String())
	require.NoError(t, err)
	require.Equal(t, tenderID, parsedTender)

	subjectID := NewSubjectID()
	parsedSubject, err := ParseSubjectID(subjectID.String())
	require.NoError(t, err)
	require.Equal(t, subjectID, parsedSubject)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "garbage", input: "not-a-uuid"},
		{name: "nil uuid", input: uuid.Nil.String()},
		{name: "truncated", input: "123e4567-e89b-12d3-a456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuoteID(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestIsNil(t *testing.T) {
	require.True(t, LotID{}.IsNil())
	require.False(t, NewLotID().IsNil())
	require.True(t, SubjectID{}.IsNil())
}

func TestOperatorID(t *testing.T) {
	require.True(t, OperatorID("").IsEmpty())
	require.False(t, OperatorID("op-1").IsEmpty())
}
