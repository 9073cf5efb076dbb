// internal/pkg/token/claims.go
package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token classes. The class marker is what distinguishes a refresh credential
// from an access credential inside an otherwise identical envelope.
const (
	ClassAccess  = "access"
	ClassRefresh = "refresh"
)

// Claims represents the signed credential payload.
type Claims struct {
	AccountID  int64  `json:"account_id"`
	Email      string `json:"email,omitempty"`
	Verified   bool   `json:"verified"`
	TokenClass string `json:"token_class"`
	jwt.RegisteredClaims
}
