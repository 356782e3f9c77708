package memory

import (
	"context"
	"sort"
	"sync"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// ClarificationStore is the in-memory clarification-request store.
type ClarificationStore struct {
	mu       sync.RWMutex
	requests map[id.ClarificationID]*models.ClarificationRequest
}

// NewClarificationStore returns an empty in-memory clarification store.
func NewClarificationStore() *ClarificationStore {
	return &ClarificationStore{requests: make(map[id.ClarificationID]*models.ClarificationRequest)}
}

// Create stores a new request, enforcing per-lot sequence uniqueness.
func (s *ClarificationStore) Create(_ context.Context, c *models.ClarificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if !existing.Deleted && existing.LotID == c.LotID && existing.SequenceNumber == c.SequenceNumber {
			return sentinel.ErrDuplicate
		}
	}
	clone := cloneClarification(c)
	clone.Version = 1
	s.requests[c.ID] = clone
	c.Version = 1
	return nil
}

func (s *ClarificationStore) Get(_ context.Context, reqID id.ClarificationID) (*models.ClarificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.requests[reqID]
	if !ok || c.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return cloneClarification(c), nil
}

func (s *ClarificationStore) Update(_ context.Context, c *models.ClarificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.requests[c.ID]
	if !ok || existing.Deleted {
		return sentinel.ErrNotFound
	}
	if existing.Version != c.Version {
		return sentinel.ErrVersionConflict
	}
	clone := cloneClarification(c)
	clone.Version++
	s.requests[c.ID] = clone
	c.Version = clone.Version
	return nil
}

func (s *ClarificationStore) ListByLot(_ context.Context, lotID id.LotID) ([]*models.ClarificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ClarificationRequest
	for _, c := range s.requests {
		if !c.Deleted && c.LotID == lotID {
			out = append(out, cloneClarification(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

// CountOpen counts the lot's non-deleted requests that are not yet closed.
// The clarification gate is evaluated on this number alone.
func (s *ClarificationStore) CountOpen(_ context.Context, lotID id.LotID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.requests {
		if !c.Deleted && c.LotID == lotID && !c.Closed {
			count++
		}
	}
	return count, nil
}

func (s *ClarificationStore) CountByLot(_ context.Context, lotID id.LotID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, c := range s.requests {
		if !c.Deleted && c.LotID == lotID {
			count++
		}
	}
	return count, nil
}

// NextSequence returns one past the highest sequence number ever assigned on
// the lot. Soft-deleted requests keep their number reserved.
func (s *ClarificationStore) NextSequence(_ context.Context, lotID id.LotID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, c := range s.requests {
		if c.LotID == lotID && c.SequenceNumber > max {
			max = c.SequenceNumber
		}
	}
	return max + 1, nil
}
