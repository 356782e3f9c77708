package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "gare/pkg/domain"
	dErrors "gare/pkg/domain-errors"
)

func newTestQuote(t *testing.T, expiry *time.Time, autoRenewalDays int) *Quote {
	t.Helper()
	q, err := NewQuote(id.NewQuoteID(), id.NewLotID(), id.NewSubjectID(), time.Now(), expiry, autoRenewalDays, time.Now())
	require.NoError(t, err)
	return q
}

func TestQuoteLifecycle(t *testing.T) {
	now := time.Now()
	price := int64(45_000)

	q := newTestQuote(t, nil, 0)
	require.Equal(t, QuoteStatePending, q.State)

	require.NoError(t, q.MarkReceived(&price, now))
	require.Equal(t, QuoteStateReceived, q.State)
	require.Equal(t, &price, q.PriceCents)

	require.NoError(t, q.MarkValid(now))
	require.Equal(t, QuoteStateValid, q.State)

	require.NoError(t, q.ToggleSelected(now))
	require.Equal(t, QuoteStateSelected, q.State)

	require.NoError(t, q.ToggleSelected(now))
	require.Equal(t, QuoteStateValid, q.State)
}

func TestQuoteIllegalMoves(t *testing.T) {
	now := time.Now()

	t.Run("cannot validate a pending quote", func(t *testing.T) {
		q := newTestQuote(t, nil, 0)
		err := q.MarkValid(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("cannot receive twice", func(t *testing.T) {
		q := newTestQuote(t, nil, 0)
		require.NoError(t, q.MarkReceived(nil, now))
		err := q.MarkReceived(nil, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("cannot select before validity", func(t *testing.T) {
		q := newTestQuote(t, nil, 0)
		require.NoError(t, q.MarkReceived(nil, now))
		err := q.Select(now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func TestQuoteSelectIdempotent(t *testing.T) {
	now := time.Now()
	q := newTestQuote(t, nil, 0)
	require.NoError(t, q.MarkReceived(nil, now))
	require.NoError(t, q.MarkValid(now))

	require.NoError(t, q.Select(now))
	require.Equal(t, QuoteStateSelected, q.State)
	require.NoError(t, q.Select(now))
	require.Equal(t, QuoteStateSelected, q.State)

	q.Deselect(now)
	require.Equal(t, QuoteStateValid, q.State)
	q.Deselect(now)
	require.Equal(t, QuoteStateValid, q.State)
}

func TestQuoteExpiryAndRenewal(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	t.Run("renewal advances expiry keeping identity and state", func(t *testing.T) {
		q := newTestQuote(t, &past, 30)
		require.NoError(t, q.MarkReceived(nil, now))
		require.NoError(t, q.MarkValid(now))
		require.True(t, q.ExpiryDue(now))
		require.True(t, q.AutoRenews())

		idBefore := q.ID
		q.Renew(now)
		require.Equal(t, idBefore, q.ID)
		require.Equal(t, QuoteStateValid, q.State)
		require.Equal(t, past.AddDate(0, 0, 30), *q.ExpiryDate)
		require.False(t, q.ExpiryDue(now))
	})

	t.Run("deeply past expiry advances in whole windows past now", func(t *testing.T) {
		ancient := now.AddDate(0, 0, -100)
		q := newTestQuote(t, &ancient, 30)
		require.NoError(t, q.MarkReceived(nil, now))
		require.NoError(t, q.MarkValid(now))
		require.True(t, q.ExpiryDue(now))

		q.Renew(now)
		require.Equal(t, ancient.AddDate(0, 0, 120), *q.ExpiryDate)
		require.False(t, q.ExpiryDue(now), "single renewal must clear the due condition")
	})

	t.Run("no renewal window means expiry", func(t *testing.T) {
		q := newTestQuote(t, &past, 0)
		require.NoError(t, q.MarkReceived(nil, now))
		require.NoError(t, q.MarkValid(now))
		require.True(t, q.ExpiryDue(now))
		require.False(t, q.AutoRenews())

		q.Expire(now)
		require.Equal(t, QuoteStateExpired, q.State)
	})

	t.Run("expiry only applies to valid quotes", func(t *testing.T) {
		q := newTestQuote(t, &past, 0)
		require.False(t, q.ExpiryDue(now), "pending quote is never expiry-due")
	})

	t.Run("no expiry date means never due", func(t *testing.T) {
		q := newTestQuote(t, nil, 0)
		require.NoError(t, q.MarkReceived(nil, now))
		require.NoError(t, q.MarkValid(now))
		require.False(t, q.ExpiryDue(now))
	})
}

func TestNewQuoteValidation(t *testing.T) {
	now := time.Now()

	_, err := NewQuote(id.NewQuoteID(), id.LotID{}, id.NewSubjectID(), now, nil, 0, now)
	require.Error(t, err)

	_, err = NewQuote(id.NewQuoteID(), id.NewLotID(), id.SubjectID{}, now, nil, 0, now)
	require.Error(t, err)

	_, err = NewQuote(id.NewQuoteID(), id.NewLotID(), id.NewSubjectID(), now, nil, -1, now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
