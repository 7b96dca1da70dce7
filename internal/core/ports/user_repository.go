package ports

import (
	"context"

	"github.com/classmates/content-api/internal/core/domain"
)

// UserRepository is the persistence collaborator for user records. It owns
// username uniqueness: Create and Update return domain.ErrUserExists on a
// duplicate and domain.ErrUserNotFound when the target is missing.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByRole(ctx context.Context, role domain.Role) (bool, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
