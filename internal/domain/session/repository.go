// internal/domain/session/repository.go
package session

import (
	"context"
	"time"
)

// Store is the durable record of sessions. Implementations must provide
// single-statement compare-and-set semantics for Touch and Revoke so that
// concurrent refreshes against one refresh reference cannot diverge.
type Store interface {
	// Create inserts the session and assigns its identity. A concurrent
	// insert against the same refresh reference makes the loser fail with
	// xerrors.ErrConflict; the caller re-reads the winner's row.
	Create(ctx context.Context, s *Session) error

	FindByRefreshRef(ctx context.Context, ref string) (*Session, error)
	FindByID(ctx context.Context, id string) (*Session, error)

	// FindActiveByAccount lists non-revoked, non-expired sessions ordered by
	// most-recently-active first. excludeID may be empty.
	FindActiveByAccount(ctx context.Context, accountID int64, excludeID string) ([]*Session, error)

	// Touch refreshes last_active_at and merges the descriptor, only while
	// the row is still active. Terminal rows report xerrors.ErrNotFound.
	Touch(ctx context.Context, id string, dev *Device) error

	// Revoke transitions the session to revoked. Idempotent: the second call
	// returns false with no error.
	Revoke(ctx context.Context, id, actor string) (bool, error)

	// RevokeAllForAccount revokes every active session of the account except
	// excludeID (may be empty) and returns the number transitioned.
	RevokeAllForAccount(ctx context.Context, accountID int64, excludeID, actor string) (int64, error)

	// PurgeExpiredOrRevoked hard-deletes terminal rows and returns the count.
	PurgeExpiredOrRevoked(ctx context.Context) (int64, error)

	Stats(ctx context.Context, accountID int64) (*Stats, error)

	// FindRecentByAccount lists sessions created or touched since the given
	// instant, most recent first.
	FindRecentByAccount(ctx context.Context, accountID int64, since time.Time) ([]*Session, error)
}
