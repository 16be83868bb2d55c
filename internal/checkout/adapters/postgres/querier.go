package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oseilabs/storefront/internal/checkout/domain"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so the
// same statement helpers serve both pooled calls and transactional ones.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// lockUser takes the transaction-scoped advisory lock for a user. Cart writes
// and checkout share the same lock key, so a checkout in flight blocks cart
// mutations for that user until it commits.
func lockUser(ctx context.Context, q querier, userID string) error {
	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("acquire user lock: %w", err)
	}
	return nil
}

// tryLockUser is the non-blocking variant used by checkout: a user whose
// lock is already held has a checkout or cart write in flight, and the
// caller reports the conflict instead of queueing behind it.
func tryLockUser(ctx context.Context, q querier, userID string) error {
	var acquired bool
	if err := q.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, userID).Scan(&acquired); err != nil {
		return fmt.Errorf("acquire user lock: %w", err)
	}
	if !acquired {
		return domain.ErrCheckoutConflict
	}
	return nil
}
