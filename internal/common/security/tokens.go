package security

import (
	"errors"
	"time"

	"authgate/internal/common"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	jwx "github.com/lestrrat-go/jwx/v2/jwt"
)

// Tokens issues and validates signed bearer tokens. Issued tokens carry
// sub, iat and exp claims; nothing else identifies the holder and there
// is no revocation before expiry.
type Tokens struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokens(algorithm string, key []byte, ttl, leeway time.Duration) *Tokens {
	return &Tokens{
		auth: jwtauth.New(algorithm, key, nil, jwx.WithAcceptableSkew(leeway)),
		ttl:  ttl,
	}
}

// Issue signs a token for subject, expiring ttl after now. The subject is
// embedded opaquely; callers are expected to have authenticated it already.
func (t *Tokens) Issue(subject string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": now.Add(t.ttl).Unix(),
		"iat": now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, err
}

// Validate verifies signature and expiry and returns the subject claim.
// Expiry past the configured leeway yields common.ErrExpiredToken; every
// other failure, including a missing subject, yields common.ErrInvalidToken.
func (t *Tokens) Validate(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(t.auth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return "", common.ErrExpiredToken
		}
		return "", common.ErrInvalidToken
	}

	subject := token.Subject()
	if subject == "" {
		return "", common.ErrInvalidToken
	}
	return subject, nil
}
