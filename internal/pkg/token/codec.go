// internal/pkg/token/codec.go
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds the immutable signing configuration, loaded once at startup.
// Access and refresh credentials are signed with independent secrets so that
// possession of one class's signing material cannot forge the other.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec issues and verifies both credential classes.
type Codec struct {
	AccessGen  *Generator
	RefreshGen *Generator

	accessVer  *Verifier
	refreshVer *Verifier
}

func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("both token secrets must be configured")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	access := []byte(cfg.AccessSecret)
	refresh := []byte(cfg.RefreshSecret)

	return &Codec{
		AccessGen:  NewGenerator(access, cfg.Issuer, cfg.Audience, ClassAccess, cfg.AccessTTL),
		RefreshGen: NewGenerator(refresh, cfg.Issuer, cfg.Audience, ClassRefresh, cfg.RefreshTTL),
		accessVer:  NewVerifier(access, cfg.Issuer, cfg.Audience, ClassAccess),
		refreshVer: NewVerifier(refresh, cfg.Issuer, cfg.Audience, ClassRefresh),
	}, nil
}

// IssueAccess signs a short-lived access credential for the account.
func (c *Codec) IssueAccess(accountID int64, email string, verified bool) (string, time.Time, error) {
	return c.AccessGen.Generate(accountID, email, verified)
}

// IssueRefresh signs a long-lived refresh credential for the account.
func (c *Codec) IssueRefresh(accountID int64, email string) (string, time.Time, error) {
	return c.RefreshGen.Generate(accountID, email, false)
}

// VerifyAccess validates an access credential.
func (c *Codec) VerifyAccess(raw string) (*Claims, error) {
	return c.accessVer.Verify(raw)
}

// VerifyRefresh validates a refresh credential.
func (c *Codec) VerifyRefresh(raw string) (*Claims, error) {
	return c.refreshVer.Verify(raw)
}

// ExtractClass decodes the token class marker WITHOUT verifying the
// signature. It exists only so the session-context middleware can tell the
// two classes apart; it must never be treated as an authentication decision.
func ExtractClass(raw string) string {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return ""
	}
	return claims.TokenClass
}
