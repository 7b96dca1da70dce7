package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/api/metrics"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

// BootstrapOutcome reports what EnsureAdmin did.
type BootstrapOutcome string

const (
	BootstrapCreated BootstrapOutcome = "created"
	BootstrapPresent BootstrapOutcome = "present"
	// BootstrapRace means another instance created an administrator between
	// the existence check and the insert.
	BootstrapRace  BootstrapOutcome = "race"
	BootstrapError BootstrapOutcome = "error"
)

// AdminAccount is the configured initial administrator.
type AdminAccount struct {
	Username string
	FullName string
	Password string
}

// Bootstrapper makes sure at least one administrator exists at startup.
type Bootstrapper struct {
	users  ports.UserRepository
	hasher ports.PasswordHasher
	admin  AdminAccount
	log    zerolog.Logger
}

func NewBootstrapper(users ports.UserRepository, hasher ports.PasswordHasher, admin AdminAccount, log zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{users: users, hasher: hasher, admin: admin, log: log}
}

// EnsureAdmin creates the configured administrator when no ADMIN account
// exists. It is safe to run on every start and from several instances at once.
func (b *Bootstrapper) EnsureAdmin(ctx context.Context) (BootstrapOutcome, error) {
	outcome, err := b.ensureAdmin(ctx)
	metrics.BootstrapTotal.WithLabelValues(string(outcome)).Inc()
	return outcome, err
}

func (b *Bootstrapper) ensureAdmin(ctx context.Context) (BootstrapOutcome, error) {
	exists, err := b.users.ExistsByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return BootstrapError, fmt.Errorf("bootstrap: check admin: %w", err)
	}
	if exists {
		b.log.Debug().Msg("admin account present")
		return BootstrapPresent, nil
	}

	hash, err := b.hasher.Hash(b.admin.Password)
	if err != nil {
		return BootstrapError, fmt.Errorf("bootstrap: hash password: %w", err)
	}

	created, err := b.users.Create(ctx, &domain.User{
		Username:     b.admin.Username,
		FullName:     b.admin.FullName,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return b.afterDuplicate(ctx)
	}
	if err != nil {
		return BootstrapError, fmt.Errorf("bootstrap: create admin: %w", err)
	}

	b.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("admin account created")
	return BootstrapCreated, nil
}

// afterDuplicate decides what a rejected insert meant. Only an ADMIN created
// by another instance counts as a race; a non-admin holding the configured
// username leaves the system without an administrator.
func (b *Bootstrapper) afterDuplicate(ctx context.Context) (BootstrapOutcome, error) {
	exists, err := b.users.ExistsByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return BootstrapError, fmt.Errorf("bootstrap: recheck admin: %w", err)
	}
	if exists {
		b.log.Info().Str("username", b.admin.Username).Msg("admin account created concurrently by another instance")
		return BootstrapRace, nil
	}
	b.log.Error().
		Str("username", b.admin.Username).
		Msg("bootstrap username belongs to a non-admin account; no administrator exists")
	return BootstrapError, fmt.Errorf("bootstrap: username %q held by a non-admin account: %w", b.admin.Username, domain.ErrUserExists)
}
