package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/api/metrics"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

const principalKey = "principal"

// Authenticate resolves the caller from a bearer token in the Authorization
// header or, when no header is sent, from the named cookie. A credential that
// is present but unusable is rejected; it never falls through to the cookie.
func Authenticate(resolver ports.PrincipalResolver, cookieName string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := extractToken(c.Request(), cookieName)
			if err != nil {
				reject("authenticate", reasonFor(err))
				return err
			}

			p, err := resolver.Resolve(c.Request().Context(), raw)
			if err != nil {
				reject("authenticate", reasonFor(err))
				log.Debug().Err(err).Str("path", c.Path()).Msg("authentication failed")
				return err
			}

			c.Set(principalKey, *p)
			return next(c)
		}
	}
}

// PrincipalFrom returns the principal attached by Authenticate.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}

// SetPrincipal attaches p to c. Handler tests use it to skip the guard.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

var errMissingCredentials = fmt.Errorf("%w: missing credentials", domain.ErrUnauthenticated)

func extractToken(r *http.Request, cookieName string) (string, error) {
	if header := r.Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrTokenMalformed)
		}
		return token, nil
	}

	if cookieName != "" {
		if ck, err := r.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", errMissingCredentials
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, errMissingCredentials):
		return "missing"
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive"
	default:
		return "invalid"
	}
}

func reject(guard, reason string) {
	metrics.GuardRejectionsTotal.WithLabelValues(guard, reason).Inc()
}
