package ports

import (
	"context"
	"time"

	"github.com/classmates/content-api/internal/core/domain"
)

// PasswordHasher hashes and verifies secrets. Verify returns false for any
// malformed hash instead of failing.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenIssuer creates and validates signed access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(p domain.TokenPayload) (string, error)
	IssueRefreshToken(p domain.TokenPayload) (string, error)
	Verify(token string, kind domain.TokenKind) (*domain.VerifiedToken, error)
	RefreshTTL() time.Duration
}

// TokenDenylist remembers token ids revoked before their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	// Consume revokes tokenID and reports whether this call was the one that
	// did it. Concurrent callers with the same id see true exactly once.
	Consume(ctx context.Context, tokenID string, until time.Time) (bool, error)
}

// RefreshTransport delivers the refresh token to the client, normally as a
// cookie on the HTTP response being built.
type RefreshTransport interface {
	WriteRefreshToken(token string, maxAge time.Duration)
	ClearRefreshToken()
}
