package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
	// createErr, when set, is returned by Create instead of storing.
	createErr error
	findErr   error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) seed(u *domain.User) *domain.User {
	out, err := r.Create(context.Background(), u)
	if err != nil {
		panic(err)
	}
	return out
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByRole(_ context.Context, role domain.Role) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return false, r.findErr
	}
	for _, u := range r.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username > out[j].Username })
	return out, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = r.nextID
	r.users[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	for _, u := range r.users {
		if u.ID != user.ID && u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// recordingTransport captures what a service hands to the cookie layer.
type recordingTransport struct {
	token   string
	maxAge  time.Duration
	writes  int
	cleared int
}

func (t *recordingTransport) WriteRefreshToken(token string, maxAge time.Duration) {
	t.token = token
	t.maxAge = maxAge
	t.writes++
}

func (t *recordingTransport) ClearRefreshToken() {
	t.token = ""
	t.cleared++
}

type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newMemDenylist() *memDenylist {
	return &memDenylist{revoked: make(map[string]time.Time)}
}

func (d *memDenylist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.revoked[tokenID] = until
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[tokenID]
	return ok, nil
}

func (d *memDenylist) Consume(_ context.Context, tokenID string, until time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if _, ok := d.revoked[tokenID]; ok {
		return false, nil
	}
	d.revoked[tokenID] = until
	return true, nil
}

// slowUserRepo delays FindByID the way a network round trip would.
type slowUserRepo struct {
	*stubUserRepo
	delay time.Duration
}

func (r slowUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	time.Sleep(r.delay)
	return r.stubUserRepo.FindByID(ctx, id)
}

// memMediaStore keeps objects in memory. Content types are taken from the
// upload as declared, since tests control them directly.
type memMediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]domain.MediaObject
	seq     int
}

func newMemMediaStore() *memMediaStore {
	return &memMediaStore{objects: make(map[string][]byte), meta: make(map[string]domain.MediaObject)}
}

func (s *memMediaStore) Save(_ context.Context, prefix string, file ports.Upload) (*domain.MediaObject, error) {
	if !strings.HasPrefix(file.ContentType, "image/") && !strings.HasPrefix(file.ContentType, "video/") {
		return nil, domain.ErrUnsupportedMedia
	}
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	name := fmt.Sprintf("%s/%03d-%s", prefix, s.seq, file.Filename)
	obj := domain.MediaObject{Name: name, ContentType: file.ContentType, Size: int64(len(data))}
	s.objects[name] = data
	s.meta[name] = obj
	return &obj, nil
}

func (s *memMediaStore) Open(_ context.Context, name string) (io.ReadCloser, *domain.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, nil, domain.ErrMediaNotFound
	}
	obj := s.meta[name]
	return io.NopCloser(bytes.NewReader(data)), &obj, nil
}

func (s *memMediaStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return domain.ErrMediaNotFound
	}
	delete(s.objects, name)
	delete(s.meta, name)
	return nil
}

func (s *memMediaStore) List(_ context.Context, prefix string) ([]domain.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MediaObject
	for name, obj := range s.meta {
		if strings.HasPrefix(name, prefix) {
			out = append(out, obj)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memMediaStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[name]
	return ok
}

type recordingJanitor struct {
	names []string
}

func (j *recordingJanitor) Enqueue(names ...string) {
	j.names = append(j.names, names...)
}

type stubPostRepo struct {
	mu     sync.Mutex
	posts  map[int64]*domain.Post
	nextID int64
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{posts: make(map[int64]*domain.Post)}
}

func clonePost(p *domain.Post) *domain.Post {
	clone := *p
	clone.Images = append([]string(nil), p.Images...)
	clone.Videos = append([]string(nil), p.Videos...)
	return &clone
}

func (r *stubPostRepo) Create(_ context.Context, p *domain.Post) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	copy := clonePost(p)
	copy.ID = r.nextID
	r.posts[copy.ID] = clonePost(copy)
	return copy, nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id int64) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return clonePost(p), nil
}

func (r *stubPostRepo) List(_ context.Context) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *stubPostRepo) Update(_ context.Context, p *domain.Post) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[p.ID]; !ok {
		return nil, domain.ErrPostNotFound
	}
	r.posts[p.ID] = clonePost(p)
	return clonePost(p), nil
}

func (r *stubPostRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

func upload(name, contentType, body string) ports.Upload {
	return ports.Upload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

var errBoom = errors.New("boom")
