package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/core/ports"
)

type UserHandler struct {
	users     ports.UserService
	maxUpload int64
}

func NewUserHandler(users ports.UserService, maxUpload int64) *UserHandler {
	return &UserHandler{users: users, maxUpload: maxUpload}
}

// Create adds an account.
//
// @Summary      Create user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /user [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), ports.CreateUserInput{
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
		Image:    req.Image,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// List returns every user.
//
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  domain.User
// @Router       /user [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Get looks a user up by numeric id, or by username when the path segment is
// not a number.
//
// @Summary      Get user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User id or username"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /user/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	key := c.Param("id")
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		user, err := h.users.Get(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, user)
	}

	user, err := h.users.GetByUsername(c.Request().Context(), key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetByUsername handles GET /user/username/:username.
//
// @Summary      Find user by username
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  domain.User
// @Failure      404       {object}  map[string]string
// @Router       /user/username/{username} [get]
func (h *UserHandler) GetByUsername(c echo.Context) error {
	user, err := h.users.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PATCH /user/:id. Students may only edit themselves.
//
// @Summary      Update user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Changes"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /user/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), actor, id, ports.UpdateUserInput{
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword sets a new password for the caller.
//
// @Summary      Change own password
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Param        body  body      changePasswordRequest  true  "newPassword or password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /user/password [patch]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if req.value() == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "newPassword is required")
	}

	if err := h.users.ChangePassword(c.Request().Context(), actor.ID, req.value()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

// SetStatus handles PATCH /user/status/:id and activates or blocks an account.
//
// @Summary      Activate or block a user
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      int            true  "User id"
// @Param        body  body      statusRequest  true  "Status"
// @Success      200   {object}  domain.User
// @Router       /user/status/{id} [patch]
func (h *UserHandler) SetStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req statusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	user, err := h.users.SetActive(c.Request().Context(), id, *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateAvatar handles PATCH /user/image/:id with a multipart "file" field.
//
// @Summary      Upload avatar
// @Tags         users
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      int   true  "User id"
// @Param        file  formData  file  true  "Image"
// @Success      200   {object}  domain.User
// @Failure      415   {object}  map[string]string
// @Router       /user/image/{id} [patch]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	file, err := formFile(c, "file", h.maxUpload)
	if err != nil {
		return err
	}

	user, err := h.users.UpdateAvatar(c.Request().Context(), actor, id, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /user/:id.
//
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  int  true  "User id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /user/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	actor, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
