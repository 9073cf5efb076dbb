// internal/domain/session/entity.go
package session

import (
	"database/sql"
	"strings"
	"time"
)

// Device classes recognized by the fingerprint extractor.
const (
	DeviceDesktop  = "desktop"
	DeviceMobile   = "mobile"
	DeviceTablet   = "tablet"
	DeviceTV       = "tv"
	DeviceWearable = "wearable"
	DeviceEmbedded = "embedded"
	DeviceUnknown  = "unknown"
)

// Revocation actors.
const (
	RevokedByUser   = "user"
	RevokedByAdmin  = "admin"
	RevokedBySystem = "system"
)

// Device is the best-effort descriptor of the client device/network/location.
// Absent fields are empty strings, never placeholders.
type Device struct {
	Class          string `json:"class"`
	BrowserName    string `json:"browser_name,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OSName         string `json:"os_name,omitempty"`
	OSVersion      string `json:"os_version,omitempty"`
	IPAddress      string `json:"ip_address"`
	Location       string `json:"location,omitempty"`
	Region         string `json:"region,omitempty"`
}

// Fingerprint is a coarse "same device?" heuristic, not a cryptographic
// identity: pipe-joined browser/OS/class with absent fields omitted.
func (d Device) Fingerprint() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{d.BrowserName, d.BrowserVersion, d.OSName, d.OSVersion, d.Class} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "|")
}

// Session represents one authenticated device/browser relationship to an account.
type Session struct {
	ID             string         `json:"id" db:"id"`
	AccountID      int64          `json:"account_id" db:"account_id"`
	RefreshRef     string         `json:"-" db:"refresh_ref"`
	DeviceClass    string         `json:"device_class" db:"device_class"`
	BrowserName    sql.NullString `json:"browser_name" db:"browser_name"`
	BrowserVersion sql.NullString `json:"browser_version" db:"browser_version"`
	OSName         sql.NullString `json:"os_name" db:"os_name"`
	OSVersion      sql.NullString `json:"os_version" db:"os_version"`
	IPAddress      sql.NullString `json:"ip_address" db:"ip_address"`
	Location       sql.NullString `json:"location" db:"location"`
	Region         sql.NullString `json:"region" db:"region"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	LastActiveAt   time.Time      `json:"last_active_at" db:"last_active_at"`
	ExpiresAt      time.Time      `json:"expires_at" db:"expires_at"`
	Revoked        bool           `json:"revoked" db:"revoked"`
	RevokedAt      sql.NullTime   `json:"revoked_at" db:"revoked_at"`
	RevokedBy      sql.NullString `json:"revoked_by" db:"revoked_by"`
}

// IsActive reports whether the session is still usable at the given instant.
// Revocation is terminal; expiry is an exclusive boundary.
func (s *Session) IsActive(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}

// Descriptor rebuilds the Device view of the stored fields.
func (s *Session) Descriptor() Device {
	return Device{
		Class:          s.DeviceClass,
		BrowserName:    stringOrEmpty(s.BrowserName),
		BrowserVersion: stringOrEmpty(s.BrowserVersion),
		OSName:         stringOrEmpty(s.OSName),
		OSVersion:      stringOrEmpty(s.OSVersion),
		IPAddress:      stringOrEmpty(s.IPAddress),
		Location:       stringOrEmpty(s.Location),
		Region:         stringOrEmpty(s.Region),
	}
}

func stringOrEmpty(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

// Stats summarizes the session population of one account.
type Stats struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Revoked         int `json:"revoked"`
	Expired         int `json:"expired"`
	UniqueDevices   int `json:"unique_devices"`
	UniqueLocations int `json:"unique_locations"`
}
