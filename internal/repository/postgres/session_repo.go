// internal/repository/postgres/session_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sentinel-service/internal/domain/session"
	xerrors "sentinel-service/internal/pkg/errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// SessionRepository is the Postgres adapter of session.Store.
//
// Schema (indexes: UNIQUE(refresh_ref), (account_id, revoked, expires_at),
// (expires_at)):
//
//	CREATE TABLE sessions (
//	    id              TEXT PRIMARY KEY,
//	    account_id      BIGINT NOT NULL,
//	    refresh_ref     TEXT NOT NULL UNIQUE,
//	    device_class    TEXT NOT NULL DEFAULT 'desktop',
//	    browser_name    TEXT,
//	    browser_version TEXT,
//	    os_name         TEXT,
//	    os_version      TEXT,
//	    ip_address      TEXT,
//	    location        TEXT,
//	    region          TEXT,
//	    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    last_active_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    expires_at      TIMESTAMPTZ NOT NULL,
//	    revoked         BOOLEAN NOT NULL DEFAULT FALSE,
//	    revoked_at      TIMESTAMPTZ,
//	    revoked_by      TEXT
//	);
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	id, account_id, refresh_ref, device_class,
	browser_name, browser_version, os_name, os_version,
	ip_address, location, region,
	created_at, last_active_at, expires_at,
	revoked, revoked_at, revoked_by
`

// Create inserts a new session row, assigning its identifier. The unique
// index on refresh_ref arbitrates concurrent creates: the loser gets
// xerrors.ErrConflict and is expected to re-read the winner's row.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	if s.ID == "" {
		s.ID = ulid.Make().String()
	}

	query := `
		INSERT INTO sessions (
			id, account_id, refresh_ref, device_class,
			browser_name, browser_version, os_name, os_version,
			ip_address, location, region, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, last_active_at
	`

	err := r.db.QueryRow(ctx, query,
		s.ID, s.AccountID, s.RefreshRef, s.DeviceClass,
		s.BrowserName, s.BrowserVersion, s.OSName, s.OSVersion,
		s.IPAddress, s.Location, s.Region, s.ExpiresAt,
	).Scan(&s.CreatedAt, &s.LastActiveAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// FindByRefreshRef finds a session by its refresh-credential reference.
func (r *SessionRepository) FindByRefreshRef(ctx context.Context, ref string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE refresh_ref = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, ref))
}

// FindByID finds a session by its identifier.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*session.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// FindActiveByAccount lists the active sessions of an account, most recently
// active first.
func (r *SessionRepository) FindActiveByAccount(ctx context.Context, accountID int64, excludeID string) ([]*session.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE account_id = $1
		  AND revoked = FALSE
		  AND expires_at > NOW()
		  AND ($2 = '' OR id <> $2)
		ORDER BY last_active_at DESC
	`

	rows, err := r.db.Query(ctx, query, accountID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

// Touch refreshes last_active_at and merges non-empty descriptor fields, in a
// single conditional update. Revoked or expired rows are never touched.
func (r *SessionRepository) Touch(ctx context.Context, id string, dev *session.Device) error {
	query := `
		UPDATE sessions
		SET last_active_at  = NOW(),
		    device_class    = COALESCE(NULLIF($2, ''), device_class),
		    browser_name    = COALESCE(NULLIF($3, ''), browser_name),
		    browser_version = COALESCE(NULLIF($4, ''), browser_version),
		    os_name         = COALESCE(NULLIF($5, ''), os_name),
		    os_version      = COALESCE(NULLIF($6, ''), os_version),
		    ip_address      = COALESCE(NULLIF($7, ''), ip_address),
		    location        = COALESCE(NULLIF($8, ''), location),
		    region          = COALESCE(NULLIF($9, ''), region)
		WHERE id = $1 AND revoked = FALSE AND expires_at > NOW()
	`

	var d session.Device
	if dev != nil {
		d = *dev
	}

	tag, err := r.db.Exec(ctx, query, id,
		d.Class, d.BrowserName, d.BrowserVersion, d.OSName, d.OSVersion,
		d.IPAddress, d.Location, d.Region,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// Revoke transitions the session to revoked. The compare-and-set on the
// revoked flag makes the call idempotent: a second revocation matches no row
// and reports false.
func (r *SessionRepository) Revoke(ctx context.Context, id, actor string) (bool, error) {
	query := `
		UPDATE sessions
		SET revoked = TRUE, revoked_at = NOW(), revoked_by = $2
		WHERE id = $1 AND revoked = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id, actor)
	if err != nil {
		return false, fmt.Errorf("failed to revoke session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// RevokeAllForAccount revokes every active session of the account except
// excludeID and returns the number transitioned.
func (r *SessionRepository) RevokeAllForAccount(ctx context.Context, accountID int64, excludeID, actor string) (int64, error) {
	query := `
		UPDATE sessions
		SET revoked = TRUE, revoked_at = NOW(), revoked_by = $3
		WHERE account_id = $1
		  AND revoked = FALSE
		  AND expires_at > NOW()
		  AND ($2 = '' OR id <> $2)
	`

	tag, err := r.db.Exec(ctx, query, accountID, excludeID, actor)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke account sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// PurgeExpiredOrRevoked hard-deletes terminal rows. Safe against live
// traffic: the predicate only matches states that cannot become active again.
func (r *SessionRepository) PurgeExpiredOrRevoked(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE revoked = TRUE OR expires_at <= NOW()`

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Stats aggregates the session population of one account.
func (r *SessionRepository) Stats(ctx context.Context, accountID int64) (*session.Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE revoked = FALSE AND expires_at > NOW()),
		       COUNT(*) FILTER (WHERE revoked = TRUE),
		       COUNT(*) FILTER (WHERE revoked = FALSE AND expires_at <= NOW()),
		       COUNT(DISTINCT CONCAT_WS('|', browser_name, browser_version, os_name, os_version, device_class)),
		       COUNT(DISTINCT location) FILTER (WHERE location IS NOT NULL)
		FROM sessions
		WHERE account_id = $1
	`

	var stats session.Stats
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&stats.Total, &stats.Active, &stats.Revoked, &stats.Expired,
		&stats.UniqueDevices, &stats.UniqueLocations,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate session stats: %w", err)
	}

	return &stats, nil
}

// FindRecentByAccount lists sessions created or touched since the given
// instant, most recent first.
func (r *SessionRepository) FindRecentByAccount(ctx context.Context, accountID int64, since time.Time) ([]*session.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE account_id = $1
		  AND (created_at >= $2 OR last_active_at >= $2)
		ORDER BY last_active_at DESC
	`

	rows, err := r.db.Query(ctx, query, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}
	defer rows.Close()

	return r.scanMany(rows)
}

func (r *SessionRepository) scanOne(row pgx.Row) (*session.Session, error) {
	var s session.Session
	err := row.Scan(
		&s.ID, &s.AccountID, &s.RefreshRef, &s.DeviceClass,
		&s.BrowserName, &s.BrowserVersion, &s.OSName, &s.OSVersion,
		&s.IPAddress, &s.Location, &s.Region,
		&s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt,
		&s.Revoked, &s.RevokedAt, &s.RevokedBy,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return &s, nil
}

func (r *SessionRepository) scanMany(rows pgx.Rows) ([]*session.Session, error) {
	var sessions []*session.Session
	for rows.Next() {
		var s session.Session
		if err := rows.Scan(
			&s.ID, &s.AccountID, &s.RefreshRef, &s.DeviceClass,
			&s.BrowserName, &s.BrowserVersion, &s.OSName, &s.OSVersion,
			&s.IPAddress, &s.Location, &s.Region,
			&s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt,
			&s.Revoked, &s.RevokedAt, &s.RevokedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session rows: %w", err)
	}

	return sessions, nil
}
