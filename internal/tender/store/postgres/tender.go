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

// TenderStore persists tenders in PostgreSQL.
type TenderStore struct {
	pool *pgxpool.Pool
}

// NewTenderStore constructs the PostgreSQL tender store.
func NewTenderStore(pool *pgxpool.Pool) *TenderStore {
	return &TenderStore{pool: pool}
}

const tenderColumns = `
	id::text, code, title, status, submission_deadline,
	closed_at, closed_by, version, created_at, updated_at`

func scanTender(row pgx.Row) (*models.Tender, error) {
	var (
		tenderID, status string
		closedBy         string
		out              models.Tender
	)
	err := row.Scan(
		&tenderID, &out.Code, &out.Title, &status, &out.SubmissionDeadline,
		&out.ClosedAt, &closedBy, &out.Version, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	u, err := uuid.Parse(tenderID)
	if err != nil {
		return nil, fmt.Errorf("parse tender id: %w", err)
	}
	out.ID = id.TenderID(u)
	out.Status = models.TenderStatus(status)
	out.ClosedBy = id.OperatorID(closedBy)
	return &out, nil
}

func (s *TenderStore) Create(ctx context.Context, t *models.Tender) error {
	query := `
		INSERT INTO tenders (
			id, code, title, status, submission_deadline,
			closed_at, closed_by, version, created_at, updated_at, deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,1,$8,$9,FALSE)`
	_, err := s.pool.Exec(ctx, query,
		t.ID.String(), t.Code, t.Title, string(t.Status), t.SubmissionDeadline,
		t.ClosedAt, string(t.ClosedBy), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	t.Version = 1
	return nil
}

func (s *TenderStore) Get(ctx context.Context, tenderID id.TenderID) (*models.Tender, error) {
	query := `SELECT` + tenderColumns + ` FROM tenders WHERE id = $1 AND deleted = FALSE`
	return scanTender(s.pool.QueryRow(ctx, query, tenderID.String()))
}

func (s *TenderStore) Update(ctx context.Context, t *models.Tender) error {
	query := `
		UPDATE tenders SET
			title = $1, status = $2, submission_deadline = $3,
			closed_at = $4, closed_by = $5,
			version = version + 1, updated_at = $6
		WHERE id = $7 AND version = $8 AND deleted = FALSE`
	tag, err := s.pool.Exec(ctx, query,
		t.Title, string(t.Status), t.SubmissionDeadline,
		t.ClosedAt, string(t.ClosedBy), t.UpdatedAt,
		t.ID.String(), t.Version,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM tenders WHERE id = $1 AND deleted = FALSE)`,
			t.ID.String()).Scan(&exists); err != nil {
			return translateErr(err)
		}
		if exists {
			return sentinel.ErrVersionConflict
		}
		return sentinel.ErrNotFound
	}
	t.Version++
	return nil
}

func (s *TenderStore) SoftDelete(ctx context.Context, tenderID id.TenderID, actor id.OperatorID, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tenders SET deleted = TRUE, deleted_by = $1, deleted_at = $2, version = version + 1
		WHERE id = $3 AND deleted = FALSE`,
		string(actor), now, tenderID.String())
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
