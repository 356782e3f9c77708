// Package postgres provides PostgreSQL store implementations backed by a
// pgx connection pool.
//
// Conventions shared by every store here:
//   - reads filter on deleted = FALSE explicitly
//   - writes are compare-and-swap on the version column; zero rows affected
//     on an existing row means a stale version (sentinel.ErrVersionConflict)
//   - unique-constraint violations surface as sentinel.ErrDuplicate
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gare/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// translateErr maps pgx-level failures onto store sentinels.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrDuplicate
	}
	return err
}
