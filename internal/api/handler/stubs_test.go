package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/api/middleware"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

var errStub = errors.New("stub: not configured")

type stubAuthService struct {
	signInFn  func(ctx context.Context, in ports.SignInInput, tr ports.RefreshTransport) (*ports.SignInResult, error)
	refreshFn func(ctx context.Context, token string, tr ports.RefreshTransport) (*ports.SignInResult, error)
	signOutFn func(ctx context.Context, p domain.Principal, token string, tr ports.RefreshTransport) error
}

func (s *stubAuthService) Resolve(context.Context, string) (*domain.Principal, error) {
	return nil, errStub
}

func (s *stubAuthService) SignIn(ctx context.Context, in ports.SignInInput, tr ports.RefreshTransport) (*ports.SignInResult, error) {
	return s.signInFn(ctx, in, tr)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string, tr ports.RefreshTransport) (*ports.SignInResult, error) {
	return s.refreshFn(ctx, token, tr)
}

func (s *stubAuthService) SignOut(ctx context.Context, p domain.Principal, token string, tr ports.RefreshTransport) error {
	return s.signOutFn(ctx, p, token, tr)
}

// stubUserService answers Get and GetByUsername from a fixed set and records
// the arguments of mutating calls.
type stubUserService struct {
	users map[int64]*domain.User

	created   ports.CreateUserInput
	updated   ports.UpdateUserInput
	actor     domain.Principal
	password  string
	active    *bool
	avatar    ports.Upload
	deletedID int64
	err       error
}

func newStubUserService(users ...*domain.User) *stubUserService {
	s := &stubUserService{users: map[int64]*domain.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *stubUserService) Create(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.User{ID: 99, Username: in.Username, Role: in.Role, IsActive: true}, nil
}

func (s *stubUserService) List(context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUserService) Get(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserService) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubUserService) Update(_ context.Context, actor domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	s.actor, s.updated = actor, in
	if s.err != nil {
		return nil, s.err
	}
	return s.Get(context.Background(), id)
}

func (s *stubUserService) ChangePassword(_ context.Context, id int64, pw string) error {
	s.password = pw
	return s.err
}

func (s *stubUserService) SetActive(_ context.Context, id int64, active bool) (*domain.User, error) {
	s.active = &active
	u, err := s.Get(context.Background(), id)
	if err != nil {
		return nil, err
	}
	u.IsActive = active
	return u, nil
}

func (s *stubUserService) UpdateAvatar(_ context.Context, actor domain.Principal, id int64, file ports.Upload) (*domain.User, error) {
	s.actor, s.avatar = actor, file
	if s.err != nil {
		return nil, s.err
	}
	return s.Get(context.Background(), id)
}

func (s *stubUserService) Delete(_ context.Context, actor domain.Principal, id int64) error {
	s.actor, s.deletedID = actor, id
	return s.err
}

type stubPostService struct {
	title    *string
	files    []ports.Upload
	oldURL   string
	fileURL  string
	deleted  int64
	err      error
	notFound bool
}

func (s *stubPostService) view(id int64, title string) *ports.PostView {
	return &ports.PostView{ID: id, Title: title, Images: []string{}, Videos: []string{}, CreatedAt: time.Unix(0, 0)}
}

func (s *stubPostService) Create(_ context.Context, title string, files []ports.Upload) (*ports.PostView, error) {
	s.title, s.files = &title, files
	if s.err != nil {
		return nil, s.err
	}
	return s.view(1, title), nil
}

func (s *stubPostService) List(context.Context) ([]*ports.PostView, error) {
	return []*ports.PostView{s.view(2, "second"), s.view(1, "first")}, nil
}

func (s *stubPostService) Get(_ context.Context, id int64) (*ports.PostView, error) {
	if s.notFound {
		return nil, domain.ErrPostNotFound
	}
	return s.view(id, "post"), nil
}

func (s *stubPostService) Update(_ context.Context, id int64, title *string, files []ports.Upload) (*ports.PostView, error) {
	s.title, s.files = title, files
	return s.view(id, "post"), nil
}

func (s *stubPostService) ReplaceFile(_ context.Context, id int64, oldURL string, file ports.Upload) (*ports.PostView, error) {
	s.oldURL, s.files = oldURL, []ports.Upload{file}
	return s.view(id, "post"), s.err
}

func (s *stubPostService) DeleteFile(_ context.Context, id int64, fileURL string) error {
	s.fileURL = fileURL
	return s.err
}

func (s *stubPostService) Delete(_ context.Context, id int64) error {
	s.deleted = id
	return s.err
}

type stubVideoService struct {
	uploaded ports.Upload
	urls     []string
	err      error
}

func (s *stubVideoService) Upload(_ context.Context, file ports.Upload) (string, error) {
	s.uploaded = file
	if s.err != nil {
		return "", s.err
	}
	return "http://localhost/api/uploads/video/01.mp4", nil
}

func (s *stubVideoService) List(context.Context) ([]string, error) {
	return s.urls, s.err
}

type stubMediaStore struct {
	objects map[string]domain.MediaObject
	data    map[string][]byte
}

func (s *stubMediaStore) Save(context.Context, string, ports.Upload) (*domain.MediaObject, error) {
	return nil, errStub
}

func (s *stubMediaStore) Open(_ context.Context, name string) (io.ReadCloser, *domain.MediaObject, error) {
	obj, ok := s.objects[name]
	if !ok {
		return nil, nil, domain.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(s.data[name])), &obj, nil
}

func (s *stubMediaStore) Delete(context.Context, string) error { return errStub }

func (s *stubMediaStore) List(context.Context, string) ([]domain.MediaObject, error) {
	return nil, errStub
}

// newContext builds an echo context with the validator installed.
func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

type formPart struct {
	field, filename string
	content         []byte
}

func multipartRequest(t *testing.T, method, target string, values map[string]string, parts ...formPart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(p.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func withPrincipal(c echo.Context, id int64, role domain.Role) {
	middleware.SetPrincipal(c, domain.Principal{ID: id, Role: role})
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}
