// internal/pkg/token/generator.go
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

type Generator struct {
	secret   []byte
	issuer   string
	audience string
	class    string
	Ttl      time.Duration
}

func NewGenerator(secret []byte, issuer, audience, class string, ttl time.Duration) *Generator {
	return &Generator{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		class:    class,
		Ttl:      ttl,
	}
}

// Generate creates a signed credential for the account and returns the signed
// string together with its absolute expiration.
func (g *Generator) Generate(accountID int64, email string, verified bool) (string, time.Time, error) {
	if len(g.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("token generator has empty secret")
	}

	now := time.Now()
	expiresAt := now.Add(g.Ttl)

	claims := &Claims{
		AccountID:  accountID,
		Email:      email,
		Verified:   verified,
		TokenClass: g.class,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   fmt.Sprintf("%d", accountID),
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        ulid.Make().String(),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := tok.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}
