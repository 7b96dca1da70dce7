package ports

import (
	"context"

	"github.com/classmates/content-api/internal/core/domain"
)

// CreateUserInput holds the fields of a new account.
type CreateUserInput struct {
	Username string
	FullName string
	Password string
	Role     domain.Role
	IsActive *bool
	Image    string
	ImageURL string
}

// UpdateUserInput holds optional changes; nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	FullName *string
	Password *string
	Role     *domain.Role
	IsActive *bool
}

// UserService manages accounts on behalf of an authenticated actor.
type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, actor domain.Principal, id int64, in UpdateUserInput) (*domain.User, error)
	ChangePassword(ctx context.Context, id int64, newPassword string) error
	SetActive(ctx context.Context, id int64, active bool) (*domain.User, error)
	UpdateAvatar(ctx context.Context, actor domain.Principal, id int64, file Upload) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Principal, id int64) error
}
