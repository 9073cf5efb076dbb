// internal/repository/postgres/account_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"sentinel-service/internal/domain/account"
	xerrors "sentinel-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository is the Postgres adapter of account.Directory.
type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	id, email, email_verified, status, last_login,
	created_at, updated_at, deleted_at
`

// FindByID retrieves an account by ID.
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// FindByEmail retrieves an account by email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(ctx, query, email))
}

// UpdateLastLogin stamps the last login timestamp.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	query := `UPDATE accounts SET last_login = NOW(), updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *AccountRepository) scanOne(row pgx.Row) (*account.Account, error) {
	var a account.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.EmailVerified, &a.Status, &a.LastLogin,
		&a.CreatedAt, &a.UpdatedAt, &a.DeletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	return &a, nil
}
