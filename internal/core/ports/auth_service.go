package ports

import (
	"context"

	"github.com/classmates/content-api/internal/core/domain"
)

// SignInInput carries the sign-in form. Role is optional; when set it must
// match the stored role.
type SignInInput struct {
	Username string
	Password string
	Role     domain.Role
}

// SignInResult is what the client receives in the response body.
type SignInResult struct {
	AccessToken string      `json:"accessToken"`
	Role        domain.Role `json:"role"`
}

// PrincipalResolver turns a raw access token into a request principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
}

// AuthService covers the token lifecycle of a session.
type AuthService interface {
	PrincipalResolver
	SignIn(ctx context.Context, in SignInInput, transport RefreshTransport) (*SignInResult, error)
	Refresh(ctx context.Context, refreshToken string, transport RefreshTransport) (*SignInResult, error)
	SignOut(ctx context.Context, principal domain.Principal, refreshToken string, transport RefreshTransport) error
}
