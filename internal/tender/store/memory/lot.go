package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// LotStore is the in-memory lot store.
type LotStore struct {
	mu   sync.RWMutex
	lots map[id.LotID]*models.Lot
}

// NewLotStore returns an empty in-memory lot store.
func NewLotStore() *LotStore {
	return &LotStore{lots: make(map[id.LotID]*models.Lot)}
}

// Create stores a new lot, enforcing code uniqueness within the tender.
func (s *LotStore) Create(_ context.Context, l *models.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.lots {
		if !existing.Deleted && existing.TenderID == l.TenderID && strings.EqualFold(existing.Code, l.Code) {
			return sentinel.ErrDuplicate
		}
	}
	c := cloneLot(l)
	c.Version = 1
	s.lots[l.ID] = c
	l.Version = 1
	return nil
}

func (s *LotStore) Get(_ context.Context, lotID id.LotID) (*models.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lots[lotID]
	if !ok || l.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return cloneLot(l), nil
}

// Update persists changes under the optimistic version check.
func (s *LotStore) Update(_ context.Context, l *models.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.lots[l.ID]
	if !ok || existing.Deleted {
		return sentinel.ErrNotFound
	}
	if existing.Version != l.Version {
		return sentinel.ErrVersionConflict
	}
	c := cloneLot(l)
	c.Version++
	s.lots[l.ID] = c
	l.Version = c.Version
	return nil
}

// Execute runs validate then mutate while holding the store lock, so no
// other writer can interleave between the check and the write.
func (s *LotStore) Execute(_ context.Context, lotID id.LotID, validate func(*models.Lot) error, mutate func(*models.Lot)) (*models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lots[lotID]
	if !ok || l.Deleted {
		return nil, sentinel.ErrNotFound
	}
	working := cloneLot(l)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	working.Version++
	s.lots[lotID] = working
	return cloneLot(working), nil
}

// List returns non-deleted lots matching the filter, ordered by creation
// time, with offset/limit paging.
func (s *LotStore) List(_ context.Context, filter models.LotFilter) ([]*models.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Lot
	for _, l := range s.lots {
		if l.Deleted {
			continue
		}
		if filter.TenderID != nil && l.TenderID != *filter.TenderID {
			continue
		}
		if filter.State != nil && l.State != *filter.State {
			continue
		}
		out = append(out, cloneLot(l))
	}
	sortLots(out)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *LotStore) CountByTender(_ context.Context, tenderID id.TenderID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, l := range s.lots {
		if !l.Deleted && l.TenderID == tenderID {
			count++
		}
	}
	return count, nil
}

// SoftDelete flags the lot deleted; subsequent reads miss it.
func (s *LotStore) SoftDelete(_ context.Context, lotID id.LotID, actor id.OperatorID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lots[lotID]
	if !ok || l.Deleted {
		return sentinel.ErrNotFound
	}
	l.MarkDeleted(actor, now)
	l.Version++
	return nil
}

// sortLots keeps paging deterministic.
func sortLots(lots []*models.Lot) {
	sort.Slice(lots, func(i, j int) bool {
		if !lots[i].CreatedAt.Equal(lots[j].CreatedAt) {
			return lots[i].CreatedAt.Before(lots[j].CreatedAt)
		}
		return lots[i].ID.String() < lots[j].ID.String()
	})
}
