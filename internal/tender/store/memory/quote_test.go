package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

func newStoredQuote(t *testing.T, store *QuoteStore, lotID id.LotID, expiry *time.Time) *models.Quote {
	t.Helper()
	q, err := models.NewQuote(id.NewQuoteID(), lotID, id.NewSubjectID(), time.Now(), expiry, 0, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Create(context.Background(), q))
	return q
}

func TestQuoteStoreListExpiryDue(t *testing.T) {
	ctx := context.Background()
	store := NewQuoteStore()
	lot := id.NewLotID()
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	// Only valid quotes with a past expiry are due.
	due := newStoredQuote(t, store, lot, &past)
	require.NoError(t, due.MarkReceived(nil, now))
	require.NoError(t, due.MarkValid(now))
	require.NoError(t, store.Update(ctx, due))

	notYet := newStoredQuote(t, store, lot, &future)
	require.NoError(t, notYet.MarkReceived(nil, now))
	require.NoError(t, notYet.MarkValid(now))
	require.NoError(t, store.Update(ctx, notYet))

	newStoredQuote(t, store, lot, &past) // still pending

	got, err := store.ListExpiryDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, due.ID, got[0].ID)
}

func TestQuoteStoreUpdateAllAtomicity(t *testing.T) {
	ctx := context.Background()
	store := NewQuoteStore()
	lot := id.NewLotID()
	now := time.Now()

	a := newStoredQuote(t, store, lot, nil)
	b := newStoredQuote(t, store, lot, nil)

	// Make b stale by updating it behind the batch's back.
	fresh, err := store.Get(ctx, b.ID)
	require.NoError(t, err)
	require.NoError(t, fresh.MarkReceived(nil, now))
	require.NoError(t, store.Update(ctx, fresh))

	require.NoError(t, a.MarkReceived(nil, now))
	err = store.UpdateAll(ctx, []*models.Quote{a, b})
	require.ErrorIs(t, err, sentinel.ErrVersionConflict)

	// The batch must not have applied partially.
	gotA, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, models.QuoteStatePending, gotA.State)
	require.Equal(t, int64(1), gotA.Version)
}
