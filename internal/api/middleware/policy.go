package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

// Operation names a protected endpoint in the access policy.
type Operation string

const (
	OpSignOut Operation = "auth.sign_out"
	OpMe      Operation = "auth.me"

	OpUserCreate         Operation = "user.create"
	OpUserList           Operation = "user.list"
	OpUserGet            Operation = "user.get"
	OpUserGetByUsername  Operation = "user.get_by_username"
	OpUserUpdate         Operation = "user.update"
	OpUserChangePassword Operation = "user.change_password"
	OpUserSetStatus      Operation = "user.set_status"
	OpUserUpdateAvatar   Operation = "user.update_avatar"
	OpUserDelete         Operation = "user.delete"

	OpPostCreate      Operation = "post.create"
	OpPostUpdate      Operation = "post.update"
	OpPostReplaceFile Operation = "post.replace_file"
	OpPostDeleteFile  Operation = "post.delete_file"
	OpPostDelete      Operation = "post.delete"

	OpVideoUpload Operation = "video.upload"
)

var (
	adminOnly    = []domain.Role{domain.RoleAdmin}
	anyRole      = []domain.Role{domain.RoleAdmin, domain.RoleStudent}
	anyPrincipal []domain.Role
)

// Policy is the static access table. An operation mapped to an empty role set
// only requires a valid principal.
var Policy = map[Operation][]domain.Role{
	OpSignOut: anyPrincipal,
	OpMe:      anyPrincipal,

	OpUserCreate:         adminOnly,
	OpUserList:           anyRole,
	OpUserGet:            anyRole,
	OpUserGetByUsername:  anyRole,
	OpUserUpdate:         anyRole,
	OpUserChangePassword: anyRole,
	OpUserSetStatus:      adminOnly,
	OpUserUpdateAvatar:   anyPrincipal,
	OpUserDelete:         adminOnly,

	OpPostCreate:      adminOnly,
	OpPostUpdate:      adminOnly,
	OpPostReplaceFile: adminOnly,
	OpPostDeleteFile:  adminOnly,
	OpPostDelete:      adminOnly,

	OpVideoUpload: adminOnly,
}

// Guard builds the authenticate-then-authorize chain for an operation.
type Guard struct {
	authenticate echo.MiddlewareFunc
	policy       map[Operation][]domain.Role
}

func NewGuard(resolver ports.PrincipalResolver, cookieName string, policy map[Operation][]domain.Role, log zerolog.Logger) *Guard {
	return &Guard{
		authenticate: Authenticate(resolver, cookieName, log),
		policy:       policy,
	}
}

// Protect returns the middleware for op. It panics for an operation missing
// from the policy so a misconfigured route fails at startup, not per request.
func (g *Guard) Protect(op Operation) []echo.MiddlewareFunc {
	roles, ok := g.policy[op]
	if !ok {
		panic(fmt.Sprintf("middleware: no access policy for operation %q", op))
	}
	return []echo.MiddlewareFunc{g.authenticate, Authorize(roles...)}
}
