package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL bounds how long an issued edit token stays valid. Tokens are
// issued per remote call, so the window only has to cover one round trip.
const TokenTTL = 2 * time.Minute

var (
	ErrEmptySecret  = errors.New("auth: empty token secret")
	ErrInvalidToken = errors.New("auth: invalid edit token")
)

// EditTokenService signs and verifies the short-lived tokens that
// authorize content-store writes on behalf of a member.
type EditTokenService struct {
	secret []byte
	now    func() time.Time
}

// NewEditTokenService creates a token service signing with the given secret.
// PRE: secret is non-empty
func NewEditTokenService(secret string) (*EditTokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &EditTokenService{secret: []byte(secret), now: time.Now}, nil
}

type editClaims struct {
	jwt.RegisteredClaims
}

// Issue signs a token bound to the given member.
// PRE: memberID is non-empty
// POST: Returned token verifies for memberID until TokenTTL elapses
func (s *EditTokenService) Issue(memberID string) (string, error) {
	if memberID == "" {
		return "", fmt.Errorf("auth: issue token: empty member id")
	}
	now := s.now()
	claims := editClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a token signature and expiry and returns the member id
// it was issued for.
// POST: On success the returned id is the Subject the token was issued with
func (s *EditTokenService) Verify(tokenString string) (string, error) {
	claims := &editClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
