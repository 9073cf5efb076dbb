// internal/domain/account/entity.go
package account

import (
	"database/sql"
	"time"
)

// Account is the owning identity of sessions. Only the fields the session
// lifecycle needs are modeled here; the full identity record lives with the
// account subsystem.
type Account struct {
	ID            int64          `json:"id" db:"id"`
	Email         sql.NullString `json:"email" db:"email"`
	EmailVerified bool           `json:"email_verified" db:"email_verified"`
	Status        string         `json:"status" db:"status"` // active, inactive, suspended
	LastLogin     sql.NullTime   `json:"last_login" db:"last_login"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt     sql.NullTime   `json:"-" db:"deleted_at"`
}
