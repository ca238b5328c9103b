package repositories

import (
	"context"
	"errors"

	"convocore/internal/common"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repositories use. Tests substitute
// a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// translate maps store-level failures onto the shared error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ErrDuplicate
	}
	return err
}

// requireTenant fails closed before any store access: a tenant-scoped query
// with an empty tenant context must return nothing, never all tenants' data.
func requireTenant(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return common.ErrTenantRequired
	}
	return nil
}
