package security

import (
	"errors"
	"fmt"
	"time"

	"bitwise74/web-starter/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

var ErrCookieCacheInvalid = errors.New("session data cookie invalid")

// CookieCache signs a snapshot of a session and its user into a short lived
// HS256 JWT so that most requests don't have to hit the session store
type CookieCache struct {
	secret []byte
	MaxAge time.Duration
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Session model.Session `json:"session"`
	User    model.User    `json:"user"`
}

func NewCookieCache(secret string, maxAge time.Duration) *CookieCache {
	return &CookieCache{
		secret: []byte(secret),
		MaxAge: maxAge,
	}
}

// Encode returns the JWT carrying s and u. The token expires after MaxAge
// or when the session expires, whichever comes first
func (c *CookieCache) Encode(s *model.Session, u *model.User) (string, error) {
	now := time.Now()
	exp := now.Add(c.MaxAge)
	if s.ExpiresAt.Before(exp) {
		exp = s.ExpiresAt
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Session: *s,
		User:    *u,
	})

	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session data, %w", err)
	}

	return signed, nil
}

// Decode validates the token and returns the session and user it carries
func (c *CookieCache) Decode(v string) (*model.Session, *model.User, error) {
	var claims sessionClaims

	_, err := jwt.ParseWithClaims(v, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, nil, fmt.Errorf("%w, %w", ErrCookieCacheInvalid, err)
	}

	if claims.Subject != claims.User.ID || claims.Session.UserID != claims.User.ID {
		return nil, nil, ErrCookieCacheInvalid
	}

	return &claims.Session, &claims.User, nil
}
