package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// TenderStore is the in-memory tender store.
type TenderStore struct {
	mu      sync.RWMutex
	tenders map[id.TenderID]*models.Tender
}

// NewTenderStore returns an empty in-memory tender store.
func NewTenderStore() *TenderStore {
	return &TenderStore{tenders: make(map[id.TenderID]*models.Tender)}
}

// Create stores a new tender, enforcing case-insensitive code uniqueness.
func (s *TenderStore) Create(_ context.Context, t *models.Tender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.tenders {
		if !existing.Deleted && strings.EqualFold(existing.Code, t.Code) {
			return sentinel.ErrDuplicate
		}
	}
	c := cloneTender(t)
	c.Version = 1
	s.tenders[t.ID] = c
	t.Version = 1
	return nil
}

func (s *TenderStore) Get(_ context.Context, tenderID id.TenderID) (*models.Tender, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenders[tenderID]
	if !ok || t.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return cloneTender(t), nil
}

// Update persists changes under the optimistic version check.
func (s *TenderStore) Update(_ context.Context, t *models.Tender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tenders[t.ID]
	if !ok || existing.Deleted {
		return sentinel.ErrNotFound
	}
	if existing.Version != t.Version {
		return sentinel.ErrVersionConflict
	}
	c := cloneTender(t)
	c.Version++
	s.tenders[t.ID] = c
	t.Version = c.Version
	return nil
}

// SoftDelete flags the tender deleted; subsequent reads miss it.
func (s *TenderStore) SoftDelete(_ context.Context, tenderID id.TenderID, actor id.OperatorID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenders[tenderID]
	if !ok || t.Deleted {
		return sentinel.ErrNotFound
	}
	t.MarkDeleted(actor, now)
	t.Version++
	return nil
}
