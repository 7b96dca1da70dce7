package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/api/metrics"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

// AuthService implements sign-in, refresh, sign-out and principal resolution.
//
// Account state is re-checked against the repository on every resolved
// request, so deactivating a user takes effect immediately rather than when
// their access token expires. The isActive flag inside the token is never
// used for authorization.
type AuthService struct {
	users     ports.UserRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenIssuer
	denylist  ports.TokenDenylist
	log       zerolog.Logger
	dummyHash string
}

// NewAuthService wires the service. denylist may be nil, which disables
// revocation.
func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	denylist ports.TokenDenylist,
	log zerolog.Logger,
) *AuthService {
	// Verifying unknown usernames against a real hash keeps the response
	// time of "no such user" close to "wrong password".
	dummy, _ := hasher.Hash("dummy-password-for-timing")
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		denylist:  denylist,
		log:       log,
		dummyHash: dummy,
	}
}

// SignIn verifies credentials, issues both tokens, hands the refresh token to
// transport and returns the access token. Nothing is written to transport
// unless every check passes.
func (s *AuthService) SignIn(ctx context.Context, in ports.SignInInput, transport ports.RefreshTransport) (*ports.SignInResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, s.rejectSignIn(in.Username, "empty credentials")
	}

	user, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(in.Password, s.dummyHash)
			return nil, s.rejectSignIn(in.Username, "unknown username")
		}
		metrics.SignInTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, s.rejectSignIn(in.Username, "password mismatch")
	}
	if in.Role != "" && in.Role != user.Role {
		return nil, s.rejectSignIn(in.Username, "role mismatch")
	}
	if !user.IsActive {
		metrics.SignInTotal.WithLabelValues("inactive").Inc()
		s.log.Info().Int64("user_id", user.ID).Msg("sign-in refused for inactive account")
		return nil, domain.ErrAccountInactive
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		metrics.SignInTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sign in: %w", err)
	}
	transport.WriteRefreshToken(refresh, s.tokens.RefreshTTL())

	metrics.SignInTotal.WithLabelValues("success").Inc()
	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("signed in")

	return &ports.SignInResult{AccessToken: access, Role: user.Role}, nil
}

// Refresh exchanges a valid refresh token for a new access token and rotates
// the refresh token. The presented token is consumed before anything else is
// looked up, so it is good for one refresh only even under concurrent use.
func (s *AuthService) Refresh(ctx context.Context, raw string, transport ports.RefreshTransport) (*ports.SignInResult, error) {
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	vt, err := s.tokens.Verify(raw, domain.TokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if !s.consume(ctx, vt.TokenID, vt.ExpiresAt) {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrTokenRevoked)
	}

	user, err := s.activeUser(ctx, vt.Payload.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountInactive) || errors.Is(err, domain.ErrUnauthenticated) {
			transport.ClearRefreshToken()
		}
		return nil, err
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	transport.WriteRefreshToken(refresh, s.tokens.RefreshTTL())

	s.log.Debug().Int64("user_id", user.ID).Msg("session refreshed")
	return &ports.SignInResult{AccessToken: access, Role: user.Role}, nil
}

// SignOut revokes the caller's access token and, when it belongs to the same
// user, the refresh token, then clears the refresh cookie.
func (s *AuthService) SignOut(ctx context.Context, p domain.Principal, refreshRaw string, transport ports.RefreshTransport) error {
	defer transport.ClearRefreshToken()

	if s.denylist == nil {
		return nil
	}
	if err := s.denylist.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if refreshRaw == "" {
		return nil
	}
	vt, err := s.tokens.Verify(refreshRaw, domain.TokenRefresh)
	if err != nil || vt.Payload.ID != p.ID {
		return nil
	}
	if err := s.denylist.Revoke(ctx, vt.TokenID, vt.ExpiresAt); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.log.Info().Int64("user_id", p.ID).Msg("signed out")
	return nil
}

// Resolve verifies an access token and returns the principal it names.
func (s *AuthService) Resolve(ctx context.Context, raw string) (*domain.Principal, error) {
	vt, err := s.tokens.Verify(raw, domain.TokenAccess)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if s.isRevoked(ctx, vt.TokenID) {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrTokenRevoked)
	}
	if _, err := s.activeUser(ctx, vt.Payload.ID); err != nil {
		return nil, err
	}

	return &domain.Principal{
		ID:        vt.Payload.ID,
		Role:      vt.Payload.Role,
		TokenID:   vt.TokenID,
		ExpiresAt: vt.ExpiresAt,
	}, nil
}

func (s *AuthService) activeUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

func (s *AuthService) issuePair(user *domain.User) (string, string, error) {
	payload := domain.PayloadFor(user)

	access, err := s.tokens.IssueAccessToken(payload)
	if err != nil {
		return "", "", err
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.TokenAccess)).Inc()

	refresh, err := s.tokens.IssueRefreshToken(payload)
	if err != nil {
		return "", "", err
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(domain.TokenRefresh)).Inc()

	return access, refresh, nil
}

func (s *AuthService) rejectSignIn(username, reason string) error {
	metrics.SignInTotal.WithLabelValues("invalid_credentials").Inc()
	s.log.Info().Str("username", username).Str("reason", reason).Msg("sign-in rejected")
	return domain.ErrInvalidCredentials
}

// isRevoked fails open: an unreachable denylist must not lock everyone out.
func (s *AuthService) isRevoked(ctx context.Context, tokenID string) bool {
	if s.denylist == nil {
		return false
	}
	revoked, err := s.denylist.IsRevoked(ctx, tokenID)
	if err != nil {
		s.log.Warn().Err(err).Msg("token denylist lookup failed")
		return false
	}
	return revoked
}

// consume reports whether the caller may use tokenID. Like isRevoked it fails
// open when the denylist cannot be reached.
func (s *AuthService) consume(ctx context.Context, tokenID string, until time.Time) bool {
	if s.denylist == nil {
		return true
	}
	won, err := s.denylist.Consume(ctx, tokenID, until)
	if err != nil {
		s.log.Warn().Err(err).Msg("token denylist consume failed")
		return true
	}
	return won
}
