package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping binds a domain sentinel to a status. An empty message means
// the wrapped error text is shown to the client.
type errorMapping struct {
	target  error
	status  int
	message string
}

// Checked in order: an inactive account outranks the token error it may
// arrive wrapped with.
var errorMappings = []errorMapping{
	{domain.ErrAccountInactive, http.StatusForbidden, "account is inactive"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()},
	{domain.ErrTokenExpired, http.StatusUnauthorized, "token expired"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "invalid token"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrPostNotFound, http.StatusNotFound, "post not found"},
	{domain.ErrMediaNotFound, http.StatusNotFound, "file not found"},
	{domain.ErrUserExists, http.StatusConflict, "username already exists"},
	{domain.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, ""},
	{domain.ErrInvalidInput, http.StatusBadRequest, ""},
}

// NewHTTPErrorHandler renders every failure as {"error": "..."}. Domain
// errors get their mapped status; anything unrecognised is logged and
// answered with a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Msg("request failed")
		}
		if code == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func statusFor(err error) (int, string) {
	// bind failures, unknown routes, body limit, rate limiter
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			return he.Code, http.StatusText(he.Code)
		}
		return he.Code, fmt.Sprint(he.Message)
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.status, err.Error()
			}
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
