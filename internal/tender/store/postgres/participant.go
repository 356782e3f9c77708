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

// ParticipantStore persists lot participants in PostgreSQL. The bidder
// tagged union maps onto (bidder_kind, subject_id, company_name); the
// constructors in models re-establish the variant on read.
type ParticipantStore struct {
	pool *pgxpool.Pool
}

// NewParticipantStore constructs the PostgreSQL participant store.
func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

const participantColumns = `
	id::text, lot_id::text, bidder_kind, subject_id::text, company_name,
	is_awardee, is_rejected_by_authority,
	version, created_at, updated_at`

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var (
		p                    models.Participant
		participantID, lotID string
		kind, companyName    string
		subjectID            *string
	)
	err := row.Scan(
		&participantID, &lotID, &kind, &subjectID, &companyName,
		&p.IsAwardee, &p.IsRejectedByAuthority,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	pu, err := uuid.Parse(participantID)
	if err != nil {
		return nil, fmt.Errorf("parse participant id: %w", err)
	}
	lu, err := uuid.Parse(lotID)
	if err != nil {
		return nil, fmt.Errorf("parse lot id: %w", err)
	}
	p.ID = id.ParticipantID(pu)
	p.LotID = id.LotID(lu)

	switch models.BidderKind(kind) {
	case models.BidderKnownSubject:
		if subjectID == nil {
			return nil, fmt.Errorf("participant %s: known-subject bidder without subject id", participantID)
		}
		su, err := uuid.Parse(*subjectID)
		if err != nil {
			return nil, fmt.Errorf("parse subject id: %w", err)
		}
		p.Bidder, err = models.KnownSubjectBidder(id.SubjectID(su))
		if err != nil {
			return nil, err
		}
	case models.BidderFreeText:
		p.Bidder, err = models.FreeTextBidder(companyName)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("participant %s: unknown bidder kind %q", participantID, kind)
	}
	return &p, nil
}

func bidderColumns(b models.Bidder) (kind string, subjectID *string, companyName string) {
	kind = string(b.Kind())
	if sid, ok := b.SubjectID(); ok {
		s := sid.String()
		subjectID = &s
	}
	if name, ok := b.CompanyName(); ok {
		companyName = name
	}
	return kind, subjectID, companyName
}

func (s *ParticipantStore) Create(ctx context.Context, p *models.Participant) error {
	kind, subjectID, companyName := bidderColumns(p.Bidder)
	query := `
		INSERT INTO participants (
			id, lot_id, bidder_kind, subject_id, company_name,
			is_awardee, is_rejected_by_authority,
			version, created_at, updated_at, deleted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,1,$8,$9,FALSE)`
	_, err := s.pool.Exec(ctx, query,
		p.ID.String(), p.LotID.String(), kind, subjectID, companyName,
		p.IsAwardee, p.IsRejectedByAuthority,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return translateErr(err)
	}
	p.Version = 1
	return nil
}

func (s *ParticipantStore) Get(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE id = $1 AND deleted = FALSE`
	return scanParticipant(s.pool.QueryRow(ctx, query, participantID.String()))
}

const participantUpdateSQL = `
	UPDATE participants SET
		is_awardee = $1, is_rejected_by_authority = $2,
		version = version + 1, updated_at = $3
	WHERE id = $4 AND version = $5 AND deleted = FALSE`

func (s *ParticipantStore) Update(ctx context.Context, p *models.Participant) error {
	tag, err := s.pool.Exec(ctx, participantUpdateSQL,
		p.IsAwardee, p.IsRejectedByAuthority, p.UpdatedAt,
		p.ID.String(), p.Version,
	)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM participants WHERE id = $1 AND deleted = FALSE)`,
			p.ID.String()).Scan(&exists); err != nil {
			return translateErr(err)
		}
		if exists {
			return sentinel.ErrVersionConflict
		}
		return sentinel.ErrNotFound
	}
	p.Version++
	return nil
}

// UpdateAll applies the batch in one transaction so the awardee swap is
// atomic; a stale version anywhere rolls back the whole batch.
func (s *ParticipantStore) UpdateAll(ctx context.Context, participants []*models.Participant) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return translateErr(err)
	}
	defer tx.Rollback(ctx)

	for _, p := range participants {
		tag, err := tx.Exec(ctx, participantUpdateSQL,
			p.IsAwardee, p.IsRejectedByAuthority, p.UpdatedAt,
			p.ID.String(), p.Version,
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
	for _, p := range participants {
		p.Version++
	}
	return nil
}

func (s *ParticipantStore) ListByLot(ctx context.Context, lotID id.LotID) ([]*models.Participant, error) {
	query := `SELECT` + participantColumns + ` FROM participants WHERE lot_id = $1 AND deleted = FALSE ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, query, lotID.String())
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var out []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, translateErr(rows.Err())
}

func (s *ParticipantStore) CountByLot(ctx context.Context, lotID id.LotID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE lot_id = $1 AND deleted = FALSE`,
		lotID.String()).Scan(&count)
	return count, translateErr(err)
}
