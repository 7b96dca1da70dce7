// Package token issues and verifies the signed access and refresh tokens.
//
// Both kinds are HS256 JWTs carrying the principal payload plus a "kind"
// claim, signed with independent keys. Verification is pure computation:
// no store is consulted.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/classmates/content-api/internal/core/domain"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Config holds the signing material and lifetimes for both token kinds.
type Config struct {
	AccessKey  []byte
	AccessTTL  time.Duration
	RefreshKey []byte
	RefreshTTL time.Duration
	Issuer     string
}

type claims struct {
	jwt.RegisteredClaims
	Kind     domain.TokenKind `json:"kind"`
	Role     domain.Role      `json:"role"`
	IsActive bool             `json:"isActive"`
}

// Issuer implements ports.TokenIssuer.
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.AccessKey) == 0 || len(cfg.RefreshKey) == 0 {
		return nil, errors.New("token: signing keys must not be empty")
	}
	if string(cfg.AccessKey) == string(cfg.RefreshKey) {
		return nil, errors.New("token: access and refresh keys must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) RefreshTTL() time.Duration { return i.cfg.RefreshTTL }

func (i *Issuer) IssueAccessToken(p domain.TokenPayload) (string, error) {
	return i.issue(p, domain.TokenAccess)
}

func (i *Issuer) IssueRefreshToken(p domain.TokenPayload) (string, error) {
	return i.issue(p, domain.TokenRefresh)
}

func (i *Issuer) issue(p domain.TokenPayload, kind domain.TokenKind) (string, error) {
	key, ttl := i.material(kind)
	now := i.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.cfg.Issuer,
			Subject:   strconv.FormatInt(p.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Kind:     kind,
		Role:     p.Role,
		IsActive: p.IsActive,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks structure, kind, signature and expiry, in that order, and
// returns the embedded payload. Every failure wraps domain.ErrTokenInvalid.
func (i *Issuer) Verify(raw string, kind domain.TokenKind) (*domain.VerifiedToken, error) {
	// The kind is read before the signature check so that a token of the
	// other kind is reported as such rather than as a signature mismatch.
	var peek claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &peek); err != nil {
		return nil, domain.ErrTokenMalformed
	}
	if peek.Kind != kind {
		return nil, domain.ErrTokenKind
	}

	key, _ := i.material(kind)
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(i.now),
	}
	if i.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.cfg.Issuer))
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return key, nil }, opts...)
	if err != nil {
		return nil, classify(err)
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || !c.Role.Valid() || c.ID == "" {
		return nil, domain.ErrTokenMalformed
	}

	return &domain.VerifiedToken{
		Payload:   domain.TokenPayload{ID: id, Role: c.Role, IsActive: c.IsActive},
		Kind:      c.Kind,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (i *Issuer) material(kind domain.TokenKind) ([]byte, time.Duration) {
	if kind == domain.TokenRefresh {
		return i.cfg.RefreshKey, i.cfg.RefreshTTL
	}
	return i.cfg.AccessKey, i.cfg.AccessTTL
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenSignature
	default:
		return domain.ErrTokenMalformed
	}
}
