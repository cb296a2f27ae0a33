package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories need. pgxmock's
// pool interface satisfies it too, so repository tests run against a
// mock without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	// ErrNotFound means the row does not resolve within the tenant
	// scope. A row that exists under a different tenant reports the
	// same error; callers can never tell the two cases apart.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict means a conditional update matched the row by
	// id and tenant but the stored version differed from the expected
	// one. Nothing was written.
	ErrVersionConflict = errors.New("version conflict")

	// ErrOverlap means the database rejected a write because it would
	// overlap a live appointment for the same staff member. This is
	// the store-level backstop behind the service's conflict pre-check.
	ErrOverlap = errors.New("appointment overlap")
)

// isExclusionViolation reports whether err is the Postgres exclusion
// constraint violation raised by the no_double_booking constraint.
func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// isUniqueViolation reports whether err is a unique constraint
// violation (duplicate idempotency key, duplicate slug, and so on).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
