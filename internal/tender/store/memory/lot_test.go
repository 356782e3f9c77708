package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

type LotStoreSuite struct {
	suite.Suite
	store *LotStore
	ctx   context.Context
}

func (s *LotStoreSuite) SetupTest() {
	s.store = NewLotStore()
	s.ctx = context.Background()
}

func TestLotStoreSuite(t *testing.T) {
	suite.Run(t, new(LotStoreSuite))
}

func (s *LotStoreSuite) newLot(tenderID id.TenderID, code string, createdAt time.Time) *models.Lot {
	l, err := models.NewLot(id.NewLotID(), tenderID, code, "test lot", nil, createdAt)
	s.Require().NoError(err)
	return l
}

func (s *LotStoreSuite) TestCreateAndGet() {
	tender := id.NewTenderID()
	l := s.newLot(tender, "LOT-1", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, l))
	s.Equal(int64(1), l.Version)

	got, err := s.store.Get(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Equal(l.Code, got.Code)

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.Get(s.ctx, id.NewLotID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("clones on read", func() {
		got.Title = "mutated copy"
		fresh, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal("test lot", fresh.Title)
	})
}

func (s *LotStoreSuite) TestCodeUniquenessWithinTender() {
	tender := id.NewTenderID()
	s.Require().NoError(s.store.Create(s.ctx, s.newLot(tender, "LOT-1", time.Now())))

	err := s.store.Create(s.ctx, s.newLot(tender, "lot-1", time.Now()))
	s.Require().ErrorIs(err, sentinel.ErrDuplicate)

	s.Run("same code under another tender is fine", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newLot(id.NewTenderID(), "LOT-1", time.Now())))
	})
}

func (s *LotStoreSuite) TestOptimisticVersioning() {
	l := s.newLot(id.NewTenderID(), "LOT-1", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, l))

	first, err := s.store.Get(s.ctx, l.ID)
	s.Require().NoError(err)
	second, err := s.store.Get(s.ctx, l.ID)
	s.Require().NoError(err)

	first.Title = "winner"
	s.Require().NoError(s.store.Update(s.ctx, first))
	s.Equal(int64(2), first.Version)

	second.Title = "loser"
	s.Require().ErrorIs(s.store.Update(s.ctx, second), sentinel.ErrVersionConflict)
}

func (s *LotStoreSuite) TestExecute() {
	l := s.newLot(id.NewTenderID(), "LOT-1", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, l))

	s.Run("validate failure leaves the lot untouched", func() {
		_, err := s.store.Execute(s.ctx, l.ID,
			func(*models.Lot) error { return fmt.Errorf("nope") },
			func(l *models.Lot) { l.Title = "should not happen" },
		)
		s.Require().Error(err)

		got, err := s.store.Get(s.ctx, l.ID)
		s.Require().NoError(err)
		s.Equal("test lot", got.Title)
		s.Equal(int64(1), got.Version)
	})

	s.Run("mutation bumps the version", func() {
		got, err := s.store.Execute(s.ctx, l.ID,
			func(*models.Lot) error { return nil },
			func(l *models.Lot) { l.Title = "renamed" },
		)
		s.Require().NoError(err)
		s.Equal("renamed", got.Title)
		s.Equal(int64(2), got.Version)
	})
}

func (s *LotStoreSuite) TestListFilterAndPaging() {
	tender := id.NewTenderID()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		l := s.newLot(tender, fmt.Sprintf("LOT-%d", i), base.Add(time.Duration(i)*time.Hour))
		s.Require().NoError(s.store.Create(s.ctx, l))
	}
	other := s.newLot(id.NewTenderID(), "OTHER-1", base)
	other.State = models.LotStateSubmitted
	s.Require().NoError(s.store.Create(s.ctx, other))

	s.Run("filters by tender", func() {
		lots, err := s.store.List(s.ctx, models.LotFilter{TenderID: &tender})
		s.Require().NoError(err)
		s.Len(lots, 5)
	})

	s.Run("filters by state", func() {
		state := models.LotStateSubmitted
		lots, err := s.store.List(s.ctx, models.LotFilter{State: &state})
		s.Require().NoError(err)
		s.Require().Len(lots, 1)
		s.Equal(other.ID, lots[0].ID)
	})

	s.Run("pages in creation order", func() {
		lots, err := s.store.List(s.ctx, models.LotFilter{TenderID: &tender, Offset: 1, Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(lots, 2)
		s.Equal("LOT-1", lots[0].Code)
		s.Equal("LOT-2", lots[1].Code)
	})

	s.Run("offset past the end is empty", func() {
		lots, err := s.store.List(s.ctx, models.LotFilter{TenderID: &tender, Offset: 10})
		s.Require().NoError(err)
		s.Empty(lots)
	})
}

func (s *LotStoreSuite) TestSoftDelete() {
	tender := id.NewTenderID()
	l := s.newLot(tender, "LOT-1", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, l))

	s.Require().NoError(s.store.SoftDelete(s.ctx, l.ID, "op-1", time.Now()))

	_, err := s.store.Get(s.ctx, l.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	count, err := s.store.CountByTender(s.ctx, tender)
	s.Require().NoError(err)
	s.Zero(count)

	s.Run("code becomes reusable", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newLot(tender, "LOT-1", time.Now())))
	})

	s.Run("double delete reports not found", func() {
		s.Require().ErrorIs(s.store.SoftDelete(s.ctx, l.ID, "op-1", time.Now()), sentinel.ErrNotFound)
	})
}
