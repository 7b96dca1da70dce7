package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/api/cookie"
	"github.com/classmates/content-api/internal/core/ports"
)

type AuthHandler struct {
	auth    ports.AuthService
	users   ports.UserService
	cookies cookie.Options
}

// NewAuthHandler wires the session endpoints. cookies scopes the refresh
// cookie; its Name is also where Refresh and SignOut look for the token.
func NewAuthHandler(auth ports.AuthService, users ports.UserService, cookies cookie.Options) *AuthHandler {
	return &AuthHandler{auth: auth, users: users, cookies: cookies}
}

// SignIn authenticates a user, returns an access token and sets the refresh
// cookie.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Credentials"
// @Success      200   {object}  ports.SignInResult
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /user/login [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	in := ports.SignInInput{Username: req.Username, Password: req.Password, Role: req.Role}
	res, err := h.auth.SignIn(c.Request().Context(), in, h.transport(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Refresh exchanges the refresh cookie for a new access token.
//
// @Summary      Refresh access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  ports.SignInResult
// @Failure      401  {object}  map[string]string
// @Router       /user/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	res, err := h.auth.Refresh(c.Request().Context(), h.refreshToken(c), h.transport(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// SignOut revokes the caller's tokens and clears the refresh cookie.
//
// @Summary      Sign out
// @Tags         auth
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Router       /user/logout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.SignOut(c.Request().Context(), p, h.refreshToken(c), h.transport(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "signed out"})
}

// Me returns the caller's account.
//
// @Summary      Current user
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /user/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) transport(c echo.Context) *cookie.Transport {
	return cookie.NewTransport(c.Response(), h.cookies)
}

func (h *AuthHandler) refreshToken(c echo.Context) string {
	ck, err := c.Cookie(h.cookies.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}
