// Package token issues and validates the short-lived JWTs that gate the
// schedule dashboard. The bot hands a user a dashboard link carrying one of
// these tokens; the dashboard's reads and writes present it back.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long a dashboard link stays valid.
const DefaultTTL = 15 * time.Minute

// Token errors.
var (
	// ErrInvalidToken covers expired, malformed, and forged tokens alike,
	// so callers cannot leak which one it was.
	ErrInvalidToken = errors.New("invalid panel token")
)

// IssuerConfig holds configuration for the issuer.
type IssuerConfig struct {
	// Secret signs tokens. Required, at least 32 bytes.
	Secret []byte

	// TTL overrides the token lifetime (optional).
	TTL time.Duration
}

// Issuer creates and validates panel tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	// now is injectable for tests.
	now func() time.Time
}

// NewIssuer creates an issuer, rejecting weak secrets.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("panel token secret must be at least 32 bytes")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: cfg.Secret, ttl: ttl, now: time.Now}, nil
}

// NewIssuerAt creates an issuer reading the clock from now, for tests that
// need to cross the expiry boundary.
func NewIssuerAt(cfg IssuerConfig, now func() time.Time) (*Issuer, error) {
	issuer, err := NewIssuer(cfg)
	if err != nil {
		return nil, err
	}
	issuer.now = now
	return issuer, nil
}

// Issue creates a signed token for the given user.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing panel token: %w", err)
	}
	return signed, nil
}

// Session is what a valid token resolves to.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// Validate checks the token and returns the session it carries.
func (i *Issuer) Validate(tokenString string) (Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" || claims.ExpiresAt == nil {
		return Session{}, ErrInvalidToken
	}
	return Session{UserID: claims.Subject, ExpiresAt: claims.ExpiresAt.Time}, nil
}
