package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// ClarificationStore persists clarification requests in PostgreSQL. The
// per-lot sequence uniqueness is backed by a partial unique index; a lost
// race on NextSequence surfaces as ErrDuplicate from Create.
type ClarificationStore struct {
	pool *pgxpool.Pool
}

// NewClarificationStore constructs the PostgreSQL clarification store.
func NewClarificationStore(pool *pgxpool.Pool) *ClarificationStore {
	return &ClarificationStore{pool: pool}
}

const clarificationColumns = `
	id::text, lot_id::text, sequence_number, request_text, request_date,
	response_text, response_date, responder_id, closed,
	version, created_at, updated_at`

func scanClarification(row pgx.Row) (*models.ClarificationRequest, error) {
	var (
		c            models.ClarificationRequest
		reqID, lotID string
		responderID  string
	)
	err := row.Scan(
		&reqID, &lotID, &c.SequenceNumber, &c.RequestText, &c.RequestDate,
		&c.ResponseText, &c.ResponseDate, &responderID, &c.Closed,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	ru, err := uuid.Parse(reqID)
	if err != nil {
		return nil, fmt.Errorf("parse clarification id: %w", err)
	}
	lu, err := uuid.Parse(lotID)
	if err != nil {
		return nil, fmt.Errorf("parse lot id: %w", err)
	}
	c.ID = id.ClarificationID(ru)
	c.LotID = id.LotID(lu)
	c.ResponderID = id.OperatorID(responderID)
	return &c, nil
}

func (s *ClarificationStore) Create(ctx context.Context, c *models.ClarificationRequest) error {
	query := `
		INSERT INTO clarification_requests (
			id, lot_id, sequence_number, request_text, request_date,
			response_text, response_date, responder_id, closed,
			version, created_at, updated_at, deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,1,$10,$11,FALSE)`
	_, err := s.pool.Exec(ctx, query,
		c.ID.String(), c.LotID.String(), c.SequenceNumber, c.RequestText, c.RequestDate,
		c.ResponseText, c.ResponseDate, string(c.ResponderID), c.Closed,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	c.Version = 1
	return nil
}

func (s *ClarificationStore) Get(ctx context.Context, reqID id.ClarificationID) (*models.ClarificationRequest, error) {
	query := `SELECT` + clarificationColumns + ` FROM clarification_requests WHERE id = $1 AND deleted = FALSE`
	return scanClarification(s.pool.QueryRow(ctx, query, reqID.String()))
}

func (s *ClarificationStore) Update(ctx context.Context, c *models.ClarificationRequest) error {
	query := `
		UPDATE clarification_requests SET
			response_text = $1, response_date = $2, responder_id = $3, closed = $4,
			version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7 AND deleted = FALSE`
	tag, err := s.pool.Exec(ctx, query,
		c.ResponseText, c.ResponseDate, string(c.ResponderID), c.Closed, c.UpdatedAt,
		c.ID.String(), c.Version,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM clarification_requests WHERE id = $1 AND deleted = FALSE)`,
			c.ID.String()).Scan(&exists); err != nil {
			return translateErr(err)
		}
		if exists {
			return sentinel.ErrVersionConflict
		}
		return sentinel.ErrNotFound
	}
	c.Version++
	return nil
}

func (s *ClarificationStore) ListByLot(ctx context.Context, lotID id.LotID) ([]*models.ClarificationRequest, error) {
	query := `SELECT` + clarificationColumns + ` FROM clarification_requests WHERE lot_id = $1 AND deleted = FALSE ORDER BY sequence_number`
	rows, err := s.pool.Query(ctx, query, lotID.String())
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []*models.ClarificationRequest
	for rows.Next() {
		c, err := scanClarification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, translateErr(rows.Err())
}

func (s *ClarificationStore) CountOpen(ctx context.Context, lotID id.LotID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM clarification_requests WHERE lot_id = $1 AND closed = FALSE AND deleted = FALSE`,
		lotID.String()).Scan(&count)
	return count, translateErr(err)
}

func (s *ClarificationStore) CountByLot(ctx context.Context, lotID id.LotID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM clarification_requests WHERE lot_id = $1 AND deleted = FALSE`,
		lotID.String()).Scan(&count)
	return count, translateErr(err)
}

// NextSequence includes soft-deleted rows: a number once assigned stays
// reserved for the lot.
func (s *ClarificationStore) NextSequence(ctx context.Context, lotID id.LotID) (int, error) {
	var next int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM clarification_requests WHERE lot_id = $1`,
		lotID.String()).Scan(&next)
	return next, translateErr(err)
}
