package domain

import "time"

// TokenKind separates access tokens from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenPayload is the signed principal snapshot embedded in every token.
type TokenPayload struct {
	ID       int64 `json:"id"`
	Role     Role  `json:"role"`
	IsActive bool  `json:"isActive"`
}

// PayloadFor builds the token payload for a stored user.
func PayloadFor(u *User) TokenPayload {
	return TokenPayload{ID: u.ID, Role: u.Role, IsActive: u.IsActive}
}

// VerifiedToken is a token whose signature, expiry and kind have been checked.
type VerifiedToken struct {
	Payload   TokenPayload
	Kind      TokenKind
	TokenID   string
	ExpiresAt time.Time
}

// Principal is the request-scoped identity attached by the authentication guard.
type Principal struct {
	ID        int64
	Role      Role
	TokenID   string
	ExpiresAt time.Time
}

// HasRole reports whether the principal holds any of roles.
func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
