package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/core/domain"
)

// Authorize admits principals holding one of roles. An empty role list admits
// any authenticated principal. It must run after Authenticate.
func Authorize(roles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				reject("authorize", "missing")
				return domain.ErrUnauthenticated
			}
			if len(roles) > 0 && !p.HasRole(roles...) {
				reject("authorize", "role")
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
