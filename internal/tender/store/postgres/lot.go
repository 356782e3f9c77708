package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gare/internal/tender/models"
	id "gare/pkg/domain"
	"gare/pkg/platform/sentinel"
)

// LotStore persists lots in PostgreSQL. The embedded evaluation and price
// elaboration are JSONB columns so they travel under the lot's version.
type LotStore struct {
	pool *pgxpool.Pool
}

// NewLotStore constructs the PostgreSQL lot store.
func NewLotStore(pool *pgxpool.Pool) *LotStore {
	return &LotStore{pool: pool}
}

const lotColumns = `
	id::text, tender_id::text, code, title, state, operator,
	examination_start_date, rejection_reason,
	base_price_cents, quoted_price_cents,
	evaluation, price_elaboration,
	version, created_at, updated_at`

func scanLot(row pgx.Row) (*models.Lot, error) {
	var (
		l                models.Lot
		lotID, tenderID  string
		state, operator  string
		evalJSON, peJSON []byte
	)
	err := row.Scan(
		&lotID, &tenderID, &l.Code, &l.Title, &state, &operator,
		&l.ExaminationStartDate, &l.RejectionReason,
		&l.BasePriceCents, &l.QuotedPriceCents,
		&evalJSON, &peJSON,
		&l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	lu, err := uuid.Parse(lotID)
	if err != nil {
		return nil, fmt.Errorf("parse lot id: %w", err)
	}
	tu, err := uuid.Parse(tenderID)
	if err != nil {
		return nil, fmt.Errorf("parse tender id: %w", err)
	}
	l.ID = id.LotID(lu)
	l.TenderID = id.TenderID(tu)
	l.State = models.LotState(state)
	l.Operator = id.OperatorID(operator)
	if len(evalJSON) > 0 {
		var ev models.Evaluation
		if err := json.Unmarshal(evalJSON, &ev); err != nil {
			return nil, fmt.Errorf("decode evaluation: %w", err)
		}
		l.Evaluation = &ev
	}
	if len(peJSON) > 0 {
		var pe models.PriceElaboration
		if err := json.Unmarshal(peJSON, &pe); err != nil {
			return nil, fmt.Errorf("decode price elaboration: %w", err)
		}
		l.PriceElaboration = &pe
	}
	return &l, nil
}

func lotJSON(l *models.Lot) (evalJSON, peJSON []byte, err error) {
	if l.Evaluation != nil {
		evalJSON, err = json.Marshal(l.Evaluation)
		if err != nil {
			return nil, nil, fmt.Errorf("encode evaluation: %w", err)
		}
	}
	if l.PriceElaboration != nil {
		peJSON, err = json.Marshal(l.PriceElaboration)
		if err != nil {
			return nil, nil, fmt.Errorf("encode price elaboration: %w", err)
		}
	}
	return evalJSON, peJSON, nil
}

func (s *LotStore) Create(ctx context.Context, l *models.Lot) error {
	evalJSON, peJSON, err := lotJSON(l)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO lots (
			id, tender_id, code, title, state, operator,
			examination_start_date, rejection_reason,
			base_price_cents, quoted_price_cents,
			evaluation, price_elaboration,
			version, created_at, updated_at, deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,1,$13,$14,FALSE)`
	_, err = s.pool.Exec(ctx, query,
		l.ID.String(), l.TenderID.String(), l.Code, l.Title, string(l.State), string(l.Operator),
		l.ExaminationStartDate, l.RejectionReason,
		l.BasePriceCents, l.QuotedPriceCents,
		evalJSON, peJSON,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	l.Version = 1
	return nil
}

func (s *LotStore) Get(ctx context.Context, lotID id.LotID) (*models.Lot, error) {
	query := `SELECT` + lotColumns + ` FROM lots WHERE id = $1 AND deleted = FALSE`
	return scanLot(s.pool.QueryRow(ctx, query, lotID.String()))
}

func (s *LotStore) Update(ctx context.Context, l *models.Lot) error {
	evalJSON, peJSON, err := lotJSON(l)
	if err != nil {
		return err
	}
	query := `
		UPDATE lots SET
			state = $1, operator = $2, examination_start_date = $3,
			rejection_reason = $4, base_price_cents = $5, quoted_price_cents = $6,
			evaluation = $7, price_elaboration = $8,
			version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11 AND deleted = FALSE`
	tag, err := s.pool.Exec(ctx, query,
		string(l.State), string(l.Operator), l.ExaminationStartDate,
		l.RejectionReason, l.BasePriceCents, l.QuotedPriceCents,
		evalJSON, peJSON, l.UpdatedAt,
		l.ID.String(), l.Version,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return s.staleOrMissing(ctx, l.ID)
	}
	l.Version++
	return nil
}

// staleOrMissing distinguishes a stale version from a missing row after a
// zero-row CAS update.
func (s *LotStore) staleOrMissing(ctx context.Context, lotID id.LotID) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lots WHERE id = $1 AND deleted = FALSE)`,
		lotID.String()).Scan(&exists)
	if err != nil {
		return translateErr(err)
	}
	if exists {
		return sentinel.ErrVersionConflict
	}
	return sentinel.ErrNotFound
}

// Execute locks the row, runs validate then mutate, and writes back with a
// version bump — the SQL equivalent of the memory store's callback pattern.
func (s *LotStore) Execute(ctx context.Context, lotID id.LotID, validate func(*models.Lot) error, mutate func(*models.Lot)) (*models.Lot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT` + lotColumns + ` FROM lots WHERE id = $1 AND deleted = FALSE FOR UPDATE`
	l, err := scanLot(tx.QueryRow(ctx, query, lotID.String()))
	if err != nil {
		return nil, err
	}
	if err := validate(l); err != nil {
		return nil, err
	}
	mutate(l)

	evalJSON, peJSON, err := lotJSON(l)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
		UPDATE lots SET
			state = $1, operator = $2, examination_start_date = $3,
			rejection_reason = $4, base_price_cents = $5, quoted_price_cents = $6,
			evaluation = $7, price_elaboration = $8,
			version = version + 1, updated_at = $9
		WHERE id = $10`,
		string(l.State), string(l.Operator), l.ExaminationStartDate,
		l.RejectionReason, l.BasePriceCents, l.QuotedPriceCents,
		evalJSON, peJSON, l.UpdatedAt,
		l.ID.String(),
	)
	if err != nil {
		return nil, translateErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, translateErr(err)
	}
	l.Version++
	return l, nil
}

func (s *LotStore) List(ctx context.Context, filter models.LotFilter) ([]*models.Lot, error) {
	query := `SELECT` + lotColumns + ` FROM lots WHERE deleted = FALSE`
	args := []any{}
	if filter.TenderID != nil {
		args = append(args, filter.TenderID.String())
		query += fmt.Sprintf(" AND tender_id = $%d", len(args))
	}
	if filter.State != nil {
		args = append(args, string(*filter.State))
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []*models.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, translateErr(rows.Err())
}

func (s *LotStore) CountByTender(ctx context.Context, tenderID id.TenderID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lots WHERE tender_id = $1 AND deleted = FALSE`,
		tenderID.String()).Scan(&count)
	return count, translateErr(err)
}

func (s *LotStore) SoftDelete(ctx context.Context, lotID id.LotID, actor id.OperatorID, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE lots SET deleted = TRUE, deleted_by = $1, deleted_at = $2, version = version + 1
		WHERE id = $3 AND deleted = FALSE`,
		string(actor), now, lotID.String())
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
