package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
	"github.com/classmates/content-api/internal/infrastructure/security"
	"github.com/classmates/content-api/internal/infrastructure/token"
)

type authFixture struct {
	svc      *AuthService
	repo     *stubUserRepo
	tokens   *token.Issuer
	denylist *memDenylist
	hasher   *security.BcryptHasher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := token.NewIssuer(token.Config{
		AccessKey:  []byte("access-secret"),
		AccessTTL:  15 * time.Minute,
		RefreshKey: []byte("refresh-secret"),
		RefreshTTL: 24 * time.Hour,
		Issuer:     "test",
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	f := &authFixture{
		repo:     newStubUserRepo(),
		tokens:   tokens,
		denylist: newMemDenylist(),
		hasher:   security.NewBcryptHasher(bcrypt.MinCost),
	}
	f.svc = NewAuthService(f.repo, f.hasher, f.tokens, f.denylist, zerolog.Nop())
	return f
}

func (f *authFixture) addUser(t *testing.T, username, password string, role domain.Role, active bool) *domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return f.repo.seed(&domain.User{
		Username:     username,
		FullName:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	})
}

func (f *authFixture) signIn(t *testing.T, username, password string) (*ports.SignInResult, *recordingTransport) {
	t.Helper()
	tr := &recordingTransport{}
	res, err := f.svc.SignIn(context.Background(), ports.SignInInput{Username: username, Password: password}, tr)
	if err != nil {
		t.Fatalf("SignIn returned error: %v", err)
	}
	return res, tr
}

func TestAuthService_SignIn_Success(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "alice", "s3cret", domain.RoleStudent, true)

	res, tr := f.signIn(t, "alice", "s3cret")
	if res.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if res.Role != domain.RoleStudent {
		t.Fatalf("unexpected role: %s", res.Role)
	}
	if tr.writes != 1 || tr.token == "" {
		t.Fatalf("expected one refresh token write, got %d", tr.writes)
	}
	if tr.maxAge != f.tokens.RefreshTTL() {
		t.Fatalf("cookie max-age %v does not match refresh ttl %v", tr.maxAge, f.tokens.RefreshTTL())
	}

	access, err := f.tokens.Verify(res.AccessToken, domain.TokenAccess)
	if err != nil {
		t.Fatalf("access token does not verify: %v", err)
	}
	refresh, err := f.tokens.Verify(tr.token, domain.TokenRefresh)
	if err != nil {
		t.Fatalf("refresh token does not verify: %v", err)
	}
	if access.Payload.ID != user.ID || refresh.Payload.ID != user.ID {
		t.Fatalf("tokens name the wrong user: %d / %d", access.Payload.ID, refresh.Payload.ID)
	}
}

func TestAuthService_SignIn_WrongPasswordSetsNoCookie(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob", "goodpass", domain.RoleStudent, true)

	tr := &recordingTransport{}
	res, err := f.svc.SignIn(context.Background(), ports.SignInInput{Username: "bob", Password: "badpass"}, tr)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
	if tr.writes != 0 || tr.cleared != 0 {
		t.Fatalf("transport must be untouched, writes=%d cleared=%d", tr.writes, tr.cleared)
	}
}

func TestAuthService_SignIn_UnknownUserIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "carol", "goodpass", domain.RoleStudent, true)

	_, wrongPass := f.svc.SignIn(context.Background(), ports.SignInInput{Username: "carol", Password: "nope"}, &recordingTransport{})
	_, unknown := f.svc.SignIn(context.Background(), ports.SignInInput{Username: "nobody", Password: "nope"}, &recordingTransport{})

	if !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", unknown)
	}
	if wrongPass.Error() != unknown.Error() {
		t.Fatalf("errors differ: %q vs %q", wrongPass, unknown)
	}
}

func TestAuthService_SignIn_EmptyFields(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "dave", "pass", domain.RoleStudent, true)

	cases := []ports.SignInInput{
		{Username: "", Password: "pass"},
		{Username: "dave", Password: ""},
	}
	for _, in := range cases {
		tr := &recordingTransport{}
		if _, err := f.svc.SignIn(context.Background(), in, tr); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("input %+v: expected ErrInvalidCredentials, got %v", in, err)
		}
		if tr.writes != 0 {
			t.Fatalf("input %+v: cookie written", in)
		}
	}
}

func TestAuthService_SignIn_RoleAssertionMismatch(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "erin", "pass", domain.RoleStudent, true)

	tr := &recordingTransport{}
	in := ports.SignInInput{Username: "erin", Password: "pass", Role: domain.RoleAdmin}
	if _, err := f.svc.SignIn(context.Background(), in, tr); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if tr.writes != 0 {
		t.Fatalf("cookie written on role mismatch")
	}

	in.Role = domain.RoleStudent
	if _, err := f.svc.SignIn(context.Background(), in, tr); err != nil {
		t.Fatalf("matching role assertion rejected: %v", err)
	}
}

func TestAuthService_SignIn_InactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "frank", "pass", domain.RoleStudent, false)

	tr := &recordingTransport{}
	_, err := f.svc.SignIn(context.Background(), ports.SignInInput{Username: "frank", Password: "pass"}, tr)
	if !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if tr.writes != 0 {
		t.Fatalf("cookie written for inactive account")
	}
}

func TestAuthService_SignIn_RepositoryFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.findErr = errBoom

	_, err := f.svc.SignIn(context.Background(), ports.SignInInput{Username: "x", Password: "y"}, &recordingTransport{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("infrastructure failure must not look like bad credentials")
	}
}

func TestAuthService_Resolve(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "gina", "pass", domain.RoleAdmin, true)
	res, tr := f.signIn(t, "gina", "pass")

	p, err := f.svc.Resolve(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if p.ID != user.ID || p.Role != domain.RoleAdmin || p.TokenID == "" {
		t.Fatalf("unexpected principal: %+v", p)
	}

	_, err = f.svc.Resolve(context.Background(), tr.token)
	if !errors.Is(err, domain.ErrUnauthenticated) || !errors.Is(err, domain.ErrTokenKind) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}

	if _, err := f.svc.Resolve(context.Background(), "garbage"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthService_Resolve_RechecksAccountState(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "hank", "pass", domain.RoleStudent, true)
	res, _ := f.signIn(t, "hank", "pass")

	user.IsActive = false
	if _, err := f.repo.Update(context.Background(), user); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := f.svc.Resolve(context.Background(), res.AccessToken); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive after deactivation, got %v", err)
	}

	if err := f.repo.Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Resolve(context.Background(), res.AccessToken); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deleted user, got %v", err)
	}
}

func TestAuthService_Resolve_DenylistFailsOpen(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "ivy", "pass", domain.RoleStudent, true)
	res, _ := f.signIn(t, "ivy", "pass")

	f.denylist.err = errBoom
	if _, err := f.svc.Resolve(context.Background(), res.AccessToken); err != nil {
		t.Fatalf("denylist outage should not reject requests: %v", err)
	}
}

func TestAuthService_Refresh_RotatesAndRevokes(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "jack", "pass", domain.RoleStudent, true)
	_, first := f.signIn(t, "jack", "pass")
	oldRefresh := first.token

	tr := &recordingTransport{}
	res, err := f.svc.Refresh(context.Background(), oldRefresh, tr)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if res.AccessToken == "" || tr.writes != 1 || tr.token == oldRefresh {
		t.Fatalf("expected a new access token and rotated refresh token")
	}

	_, err = f.svc.Refresh(context.Background(), oldRefresh, &recordingTransport{})
	if !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("consumed refresh token reused: %v", err)
	}
}

func TestAuthService_Refresh_ConcurrentReuseWinsOnce(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "june", "pass", domain.RoleStudent, true)
	_, first := f.signIn(t, "june", "pass")

	svc := NewAuthService(slowUserRepo{f.repo, 2 * time.Millisecond}, f.hasher, f.tokens, f.denylist, zerolog.Nop())

	const callers = 20
	var (
		wg      sync.WaitGroup
		success atomic.Int32
		revoked atomic.Int32
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), first.token, &recordingTransport{})
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, domain.ErrTokenRevoked):
				revoked.Add(1)
			}
		}()
	}
	wg.Wait()

	if success.Load() != 1 || revoked.Load() != callers-1 {
		t.Fatalf("expected exactly one refresh, got success=%d revoked=%d", success.Load(), revoked.Load())
	}
}

func TestAuthService_Refresh_DenylistFailsOpen(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "kim", "pass", domain.RoleStudent, true)
	_, first := f.signIn(t, "kim", "pass")

	f.denylist.err = errBoom
	if _, err := f.svc.Refresh(context.Background(), first.token, &recordingTransport{}); err != nil {
		t.Fatalf("denylist outage should not block refresh: %v", err)
	}
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	user := f.addUser(t, "kate", "pass", domain.RoleStudent, true)
	res, first := f.signIn(t, "kate", "pass")

	if _, err := f.svc.Refresh(context.Background(), "", &recordingTransport{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for missing token, got %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), res.AccessToken, &recordingTransport{}); !errors.Is(err, domain.ErrTokenKind) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}

	user.IsActive = false
	if _, err := f.repo.Update(context.Background(), user); err != nil {
		t.Fatalf("update: %v", err)
	}
	tr := &recordingTransport{}
	if _, err := f.svc.Refresh(context.Background(), first.token, tr); !errors.Is(err, domain.ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if tr.cleared != 1 || tr.writes != 0 {
		t.Fatalf("expected refresh cookie cleared, writes=%d cleared=%d", tr.writes, tr.cleared)
	}
}

func TestAuthService_SignOut(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "liam", "pass", domain.RoleStudent, true)
	res, first := f.signIn(t, "liam", "pass")

	p, err := f.svc.Resolve(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	tr := &recordingTransport{}
	if err := f.svc.SignOut(context.Background(), *p, first.token, tr); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if tr.cleared != 1 {
		t.Fatalf("expected refresh cookie cleared")
	}
	if _, err := f.svc.Resolve(context.Background(), res.AccessToken); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("access token still valid after sign-out: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), first.token, &recordingTransport{}); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("refresh token still valid after sign-out: %v", err)
	}
}

func TestAuthService_SignOut_WithoutDenylist(t *testing.T) {
	f := newAuthFixture(t)
	svc := NewAuthService(f.repo, f.hasher, f.tokens, nil, zerolog.Nop())

	tr := &recordingTransport{}
	if err := svc.SignOut(context.Background(), domain.Principal{ID: 1, TokenID: "x"}, "", tr); err != nil {
		t.Fatalf("SignOut returned error: %v", err)
	}
	if tr.cleared != 1 {
		t.Fatalf("expected refresh cookie cleared")
	}
}
