package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// QuoteStore is the in-memory quote store.
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[id.QuoteID]*models.Quote
}

// NewQuoteStore returns an empty in-memory quote store.
func NewQuoteStore() *QuoteStore {
	return &QuoteStore{quotes: make(map[id.QuoteID]*models.Quote)}
}

func (s *QuoteStore) Create(_ context.Context, q *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[q.ID]; ok {
		return sentinel.ErrDuplicate
	}
	c := cloneQuote(q)
	c.Version = 1
	s.quotes[q.ID] = c
	q.Version = 1
	return nil
}

func (s *QuoteStore) Get(_ context.Context, quoteID id.QuoteID) (*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[quoteID]
	if !ok || q.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return cloneQuote(q), nil
}

func (s *QuoteStore) Update(_ context.Context, q *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(q)
}

func (s *QuoteStore) updateLocked(q *models.Quote) error {
	existing, ok := s.quotes[q.ID]
	if !ok || existing.Deleted {
		return sentinel.ErrNotFound
	}
	if existing.Version != q.Version {
		return sentinel.ErrVersionConflict
	}
	c := cloneQuote(q)
	c.Version++
	s.quotes[q.ID] = c
	q.Version = c.Version
	return nil
}

// UpdateAll applies the batch under one lock acquisition so exclusive
// selection cannot interleave with another writer. All-or-nothing: a stale
// version anywhere rejects the whole batch.
func (s *QuoteStore) UpdateAll(_ context.Context, quotes []*models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range quotes {
		existing, ok := s.quotes[q.ID]
		if !ok || existing.Deleted {
			return sentinel.ErrNotFound
		}
		if existing.Version != q.Version {
			return sentinel.ErrVersionConflict
		}
	}
	for _, q := range quotes {
		if err := s.updateLocked(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *QuoteStore) ListByLot(_ context.Context, lotID id.LotID) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Quote
	for _, q := range s.quotes {
		if !q.Deleted && q.LotID == lotID {
			out = append(out, cloneQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestDate.Before(out[j].RequestDate) })
	return out, nil
}

// ListExpiryDue returns valid quotes whose expiry date lies before now.
func (s *QuoteStore) ListExpiryDue(_ context.Context, now time.Time) ([]*models.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Quote
	for _, q := range s.quotes {
		if !q.Deleted && q.ExpiryDue(now) {
			out = append(out, cloneQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *QuoteStore) CountByLot(_ context.Context, lotID id.LotID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, q := range s.quotes {
		if !q.Deleted && q.LotID == lotID {
			count++
		}
	}
	return count, nil
}
