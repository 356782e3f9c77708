package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

func TestBidderUnion(t *testing.T) {
	t.Run("known subject", func(t *testing.T) {
		subject := id.NewSubjectID()
		b, err := KnownSubjectBidder(subject)
		require.NoError(t, err)
		require.Equal(t, BidderKnownSubject, b.Kind())

		got, ok := b.SubjectID()
		require.True(t, ok)
		require.Equal(t, subject, got)

		_, ok = b.CompanyName()
		require.False(t, ok)
		require.Equal(t, subject.String(), b.DisplayName())
	})

	t.Run("free text", func(t *testing.T) {
		b, err := FreeTextBidder("  Impresa Bianchi  ")
		require.NoError(t, err)
		require.Equal(t, BidderFreeText, b.Kind())

		name, ok := b.CompanyName()
		require.True(t, ok)
		require.Equal(t, "Impresa Bianchi", name)

		_, ok = b.SubjectID()
		require.False(t, ok)
		require.Equal(t, "Impresa Bianchi", b.DisplayName())
	})

	t.Run("invalid variants are unconstructible", func(t *testing.T) {
		_, err := KnownSubjectBidder(id.SubjectID{})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = FreeTextBidder("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		require.True(t, Bidder{}.IsZero())
	})
}

func TestParticipantFlags(t *testing.T) {
	now := time.Now()
	bidder, err := FreeTextBidder("Impresa Verdi")
	require.NoError(t, err)
	p, err := NewParticipant(id.NewParticipantID(), id.NewLotID(), bidder, now)
	require.NoError(t, err)

	t.Run("award then clear", func(t *testing.T) {
		require.NoError(t, p.CanAward())
		p.ApplyAward(now)
		require.True(t, p.IsAwardee)
		p.ClearAward(now)
		require.False(t, p.IsAwardee)
	})

	t.Run("awardee cannot be rejected by the authority", func(t *testing.T) {
		p.ApplyAward(now)
		err := p.CanRejectByAuthority()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParticipantState))
		p.ClearAward(now)
	})

	t.Run("authority-rejected cannot be awarded", func(t *testing.T) {
		require.NoError(t, p.CanRejectByAuthority())
		p.ApplyAuthorityRejection(now)
		err := p.CanAward()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidParticipantState))
	})
}

func TestNewParticipantValidation(t *testing.T) {
	now := time.Now()
	bidder, err := FreeTextBidder("Impresa Verdi")
	require.NoError(t, err)

	_, err = NewParticipant(id.NewParticipantID(), id.LotID{}, bidder, now)
	require.Error(t, err)

	_, err = NewParticipant(id.NewParticipantID(), id.NewLotID(), Bidder{}, now)
	require.Error(t, err)
}
