package service

import (
	"context"
	"time"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
)

// Stores are interface-driven so the workflow logic is testable against the
// in-memory implementations and swappable to PostgreSQL without rewiring
// business code. Every implementation:
//
//   - excludes soft-deleted records from reads via an explicit predicate
//   - returns sentinel.ErrNotFound / ErrDuplicate / ErrVersionConflict for
//     infrastructure facts; services translate them into domain errors
//   - bumps the record's Version on every successful write and rejects
//     writes carrying a stale version (optimistic concurrency, spec'd for
//     the single-writer-per-entity discipline)

// TenderStore persists tenders.
type TenderStore interface {
	Create(ctx context.Context, t *models.Tender) error
	Get(ctx context.Context, tenderID id.TenderID) (*models.Tender, error)
	Update(ctx context.Context, t *models.Tender) error
	SoftDelete(ctx context.Context, tenderID id.TenderID, actor id.OperatorID, now time.Time) error
}

// LotFilter narrows and pages lot queries. It lives in models so store
// packages can reference it without importing this package.
type LotFilter = models.LotFilter

// LotStore persists lots together with their embedded evaluation and price
// elaboration.
type LotStore interface {
	Create(ctx context.Context, l *models.Lot) error
	Get(ctx context.Context, lotID id.LotID) (*models.Lot, error)
	Update(ctx context.Context, l *models.Lot) error
	// Execute atomically runs validate then mutate on the stored lot,
	// holding the entity lock across both (mutex in memory, row lock plus
	// version bump in SQL). Used for mutations whose validation needs only
	// the lot itself.
	Execute(ctx context.Context, lotID id.LotID, validate func(*models.Lot) error, mutate func(*models.Lot)) (*models.Lot, error)
	List(ctx context.Context, filter LotFilter) ([]*models.Lot, error)
	CountByTender(ctx context.Context, tenderID id.TenderID) (int, error)
	SoftDelete(ctx context.Context, lotID id.LotID, actor id.OperatorID, now time.Time) error
}

// QuoteStore persists quotes.
type QuoteStore interface {
	Create(ctx context.Context, q *models.Quote) error
	Get(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error)
	Update(ctx context.Context, q *models.Quote) error
	// UpdateAll applies a batch of sibling updates in one lock scope so
	// exclusive selection cannot interleave with another writer.
	UpdateAll(ctx context.Context, quotes []*models.Quote) error
	ListByLot(ctx context.Context, lotID id.LotID) ([]*models.Quote, error)
	// ListExpiryDue returns valid quotes whose expiry date lies before now.
	ListExpiryDue(ctx context.Context, now time.Time) ([]*models.Quote, error)
	CountByLot(ctx context.Context, lotID id.LotID) (int, error)
}

// ParticipantStore persists lot participants.
type ParticipantStore interface {
	Create(ctx context.Context, p *models.Participant) error
	Get(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error)
	Update(ctx context.Context, p *models.Participant) error
	// UpdateAll applies a batch of sibling updates in one lock scope; the
	// single-awardee swap relies on it.
	UpdateAll(ctx context.Context, participants []*models.Participant) error
	ListByLot(ctx context.Context, lotID id.LotID) ([]*models.Participant, error)
	CountByLot(ctx context.Context, lotID id.LotID) (int, error)
}

// ClarificationStore persists clarification requests.
type ClarificationStore interface {
	Create(ctx context.Context, c *models.ClarificationRequest) error
	Get(ctx context.Context, reqID id.ClarificationID) (*models.ClarificationRequest, error)
	Update(ctx context.Context, c *models.ClarificationRequest) error
	ListByLot(ctx context.Context, lotID id.LotID) ([]*models.ClarificationRequest, error)
	CountOpen(ctx context.Context, lotID id.LotID) (int, error)
	CountByLot(ctx context.Context, lotID id.LotID) (int, error)
	// NextSequence reserves the next per-lot sequence number (1..N).
	NextSequence(ctx context.Context, lotID id.LotID) (int, error)
}
