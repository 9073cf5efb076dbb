// internal/pkg/token/verifier.go
package token

import (
	"fmt"

	xerrors "sentinel-service/internal/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	class    string
}

func NewVerifier(secret []byte, issuer, audience, class string) *Verifier {
	return &Verifier{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		class:    class,
	}
}

// Verify validates a signed credential and returns its claims. Every failure
// mode (signature, expiry, issuer, audience, class) collapses into the one
// opaque xerrors.ErrInvalidCredential so callers cannot be used as an oracle.
// Expiry is an exclusive boundary: a credential expiring exactly now is
// already expired.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("token verifier has empty secret")
	}

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, xerrors.ErrInvalidCredential
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, xerrors.ErrInvalidCredential
	}

	if claims.TokenClass != v.class {
		return nil, xerrors.ErrInvalidCredential
	}

	return claims, nil
}
