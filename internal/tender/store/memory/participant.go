package memory

import (
	"context"
	"sort"
	"sync"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// ParticipantStore is the in-memory participant store.
type ParticipantStore struct {
	mu           sync.RWMutex
	participants map[id.ParticipantID]*models.Participant
}

// NewParticipantStore returns an empty in-memory participant store.
func NewParticipantStore() *ParticipantStore {
	return &ParticipantStore{participants: make(map[id.ParticipantID]*models.Participant)}
}

func (s *ParticipantStore) Create(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[p.ID]; ok {
		return sentinel.ErrDuplicate
	}
	c := cloneParticipant(p)
	c.Version = 1
	s.participants[p.ID] = c
	p.Version = 1
	return nil
}

func (s *ParticipantStore) Get(_ context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[participantID]
	if !ok || p.Deleted {
		return nil, sentinel.ErrNotFound
	}
	return cloneParticipant(p), nil
}

func (s *ParticipantStore) Update(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(p)
}

func (s *ParticipantStore) updateLocked(p *models.Participant) error {
	existing, ok := s.participants[p.ID]
	if !ok || existing.Deleted {
		return sentinel.ErrNotFound
	}
	if existing.Version != p.Version {
		return sentinel.ErrVersionConflict
	}
	c := cloneParticipant(p)
	c.Version++
	s.participants[p.ID] = c
	p.Version = c.Version
	return nil
}

// UpdateAll applies the batch under one lock acquisition; the awardee swap
// relies on no other writer interleaving. All-or-nothing on stale versions.
func (s *ParticipantStore) UpdateAll(_ context.Context, participants []*models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range participants {
		existing, ok := s.participants[p.ID]
		if !ok || existing.Deleted {
			return sentinel.ErrNotFound
		}
		if existing.Version != p.Version {
			return sentinel.ErrVersionConflict
		}
	}
	for _, p := range participants {
		if err := s.updateLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *ParticipantStore) ListByLot(_ context.Context, lotID id.LotID) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Participant
	for _, p := range s.participants {
		if !p.Deleted && p.LotID == lotID {
			out = append(out, cloneParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *ParticipantStore) CountByLot(_ context.Context, lotID id.LotID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.participants {
		if !p.Deleted && p.LotID == lotID {
			count++
		}
	}
	return count, nil
}
