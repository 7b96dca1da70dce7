package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

const avatarPrefix = "avatar"

// UserService manages accounts. Role checks on routes happen in the guards;
// the rules here are the ones that depend on which record is targeted.
type UserService struct {
	users   ports.UserRepository
	hasher  ports.PasswordHasher
	media   ports.MediaStore
	janitor ports.MediaJanitor
	urls    MediaURLs
	log     zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	media ports.MediaStore,
	janitor ports.MediaJanitor,
	urls MediaURLs,
	log zerolog.Logger,
) *UserService {
	return &UserService{users: users, hasher: hasher, media: media, janitor: janitor, urls: urls, log: log}
}

func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
		Image:        in.Image,
		ImageURL:     in.ImageURL,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.FindByUsername(ctx, username)
}

// Update applies in to user id. Students may only edit their own record and
// may not touch role or status.
func (s *UserService) Update(ctx context.Context, actor domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		if actor.ID != id || in.Role != nil || in.IsActive != nil {
			return nil, domain.ErrForbidden
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username cannot be empty", domain.ErrInvalidInput)
		}
		user.Username = username
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, *in.Role)
		}
		user.Role = *in.Role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", domain.ErrInvalidInput)
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	return s.users.Update(ctx, user)
}

func (s *UserService) ChangePassword(ctx context.Context, id int64, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password cannot be empty", domain.ErrInvalidInput)
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if _, err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Msg("password changed")
	return nil
}

func (s *UserService) SetActive(ctx context.Context, id int64, active bool) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Bool("active", active).Msg("user status changed")
	return updated, nil
}

// UpdateAvatar stores a new profile image and schedules the previous one for
// deletion. Only images are accepted.
func (s *UserService) UpdateAvatar(ctx context.Context, actor domain.Principal, id int64, file ports.Upload) (*domain.User, error) {
	if !actor.HasRole(domain.RoleAdmin) && actor.ID != id {
		return nil, domain.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	obj, err := s.media.Save(ctx, avatarPrefix, file)
	if err != nil {
		return nil, err
	}
	if kind, _ := domain.KindOf(obj.ContentType); kind != domain.MediaImage {
		s.janitor.Enqueue(obj.Name)
		return nil, fmt.Errorf("%w: avatar must be an image", domain.ErrUnsupportedMedia)
	}

	previous := user.Image
	user.Image = obj.Name
	user.ImageURL = s.urls.URL(obj.Name)

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		s.janitor.Enqueue(obj.Name)
		return nil, err
	}
	if previous != "" && previous != obj.Name {
		s.janitor.Enqueue(previous)
	}
	return updated, nil
}

// Delete removes user id. An actor can never delete their own account.
func (s *UserService) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	if actor.ID == id {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrForbidden)
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	if user.Image != "" {
		s.janitor.Enqueue(user.Image)
	}
	s.log.Info().Int64("user_id", id).Int64("actor_id", actor.ID).Msg("user deleted")
	return nil
}
