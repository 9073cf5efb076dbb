// internal/domain/session/dto.go
package session

import "time"

// RefreshRequest carries the raw refresh credential presented by the client.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse for a successful rotation. The refresh credential is never
// reissued here; only a fresh access credential is returned.
type RefreshResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
}

// Info is the per-session view returned by the session list endpoints.
type Info struct {
	ID           string    `json:"id"`
	Device       Device    `json:"device"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsCurrent    bool      `json:"is_current"`
}

// RevokeResponse reports whether a revocation changed state.
type RevokeResponse struct {
	Revoked bool `json:"revoked"`
}

// RevokeAllResponse reports how many sessions were transitioned.
type RevokeAllResponse struct {
	RevokedCount int64 `json:"revoked_count"`
}

// CleanupResponse reports how many terminal rows were removed.
type CleanupResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}
