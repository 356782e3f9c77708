package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// QuoteStore persists quotes in PostgreSQL.
type QuoteStore struct {
	pool *pgxpool.Pool
}

// NewQuoteStore constructs the PostgreSQL quote store.
func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{pool: pool}
}

const quoteColumns = `
	id::text, lot_id::text, supplier_id::text, state, price_cents,
	request_date, expiry_date, auto_renewal_days,
	version, created_at, updated_at`

func scanQuote(row pgx.Row) (*models.Quote, error) {
	var (
		q                          models.Quote
		quoteID, lotID, supplierID string
		state                      string
	)
	err := row.Scan(
		&quoteID, &lotID, &supplierID, &state, &q.PriceCents,
		&q.RequestDate, &q.ExpiryDate, &q.AutoRenewalDays,
		&q.Version, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	qu, err := uuid.Parse(quoteID)
	if err != nil {
		return nil, fmt.Errorf("parse quote id: %w", err)
	}
	lu, err := uuid.Parse(lotID)
	if err != nil {
		return nil, fmt.Errorf("parse lot id: %w", err)
	}
	su, err := uuid.Parse(supplierID)
	if err != nil {
		return nil, fmt.Errorf("parse supplier id: %w", err)
	}
	q.ID = id.QuoteID(qu)
	q.LotID = id.LotID(lu)
	q.SupplierID = id.SubjectID(su)
	q.State = models.QuoteState(state)
	return &q, nil
}

func (s *QuoteStore) Create(ctx context.Context, q *models.Quote) error {
	query := `
		INSERT INTO quotes (
			id, lot_id, supplier_id, state, price_cents,
			request_date, expiry_date, auto_renewal_days,
			version, created_at, updated_at, deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,1,$9,$10,FALSE)`
	_, err := s.pool.Exec(ctx, query,
		q.ID.String(), q.LotID.String(), q.SupplierID.String(), string(q.State), q.PriceCents,
		q.RequestDate, q.ExpiryDate, q.AutoRenewalDays,
		q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	q.Version = 1
	return nil
}

func (s *QuoteStore) Get(ctx context.Context, quoteID id.QuoteID) (*models.Quote, error) {
	query := `SELECT` + quoteColumns + ` FROM quotes WHERE id = $1 AND deleted = FALSE`
	return scanQuote(s.pool.QueryRow(ctx, query, quoteID.String()))
}

func (s *QuoteStore) Update(ctx context.Context, q *models.Quote) error {
	tag, err := s.pool.Exec(ctx, quoteUpdateSQL,
		string(q.State), q.PriceCents, q.ExpiryDate, q.AutoRenewalDays, q.UpdatedAt,
		q.ID.String(), q.Version,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return s.staleOrMissing(ctx, q.ID)
	}
	q.Version++
	return nil
}

const quoteUpdateSQL = `
	UPDATE quotes SET
		state = $1, price_cents = $2, expiry_date = $3, auto_renewal_days = $4,
		version = version + 1, updated_at = $5
	WHERE id = $6 AND version = $7 AND deleted = FALSE`

// UpdateAll applies the batch in one transaction; a stale version anywhere
// rolls back the whole batch.
func (s *QuoteStore) UpdateAll(ctx context.Context, quotes []*models.Quote) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback(ctx)

	for _, q := range quotes {
		tag, err := tx.Exec(ctx, quoteUpdateSQL,
			string(q.State), q.PriceCents, q.ExpiryDate, q.AutoRenewalDays, q.UpdatedAt,
			q.ID.String(), q.Version,
		)
		if err != nil {
			return translateErr(err)
		}
		if tag.RowsAffected() == 0 {
			return sentinel.ErrVersionConflict
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return translateErr(err)
	}
	for _, q := range quotes {
		q.Version++
	}
	return nil
}

func (s *QuoteStore) staleOrMissing(ctx context.Context, quoteID id.QuoteID) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1 AND deleted = FALSE)`,
		quoteID.String()).Scan(&exists)
	if err != nil {
		return translateErr(err)
	}
	if exists {
		return sentinel.ErrVersionConflict
	}
	return sentinel.ErrNotFound
}

func (s *QuoteStore) ListByLot(ctx context.Context, lotID id.LotID) ([]*models.Quote, error) {
	query := `SELECT` + quoteColumns + ` FROM quotes WHERE lot_id = $1 AND deleted = FALSE ORDER BY request_date, id`
	return s.queryQuotes(ctx, query, lotID.String())
}

// ListExpiryDue returns valid quotes whose expiry date lies before now.
func (s *QuoteStore) ListExpiryDue(ctx context.Context, now time.Time) ([]*models.Quote, error) {
	query := `SELECT` + quoteColumns + ` FROM quotes
		WHERE state = $1 AND expiry_date IS NOT NULL AND expiry_date < $2 AND deleted = FALSE
		ORDER BY expiry_date, id`
	return s.queryQuotes(ctx, query, string(models.QuoteStateValid), now)
}

func (s *QuoteStore) queryQuotes(ctx context.Context, query string, args ...any) ([]*models.Quote, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []*models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, translateErr(rows.Err())
}

func (s *QuoteStore) CountByLot(ctx context.Context, lotID id.LotID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quotes WHERE lot_id = $1 AND deleted = FALSE`,
		lotID.String()).Scan(&count)
	return count, translateErr(err)
}
