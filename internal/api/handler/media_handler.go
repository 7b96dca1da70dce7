package handler

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

// MediaHandler serves stored uploads by object name.
type MediaHandler struct {
	store ports.MediaStore
}

func NewMediaHandler(store ports.MediaStore) *MediaHandler {
	return &MediaHandler{store: store}
}

// Serve streams the object named by the wildcard path segment.
//
// @Summary      Download media
// @Tags         media
// @Param        name  path  string  true  "Object name"
// @Success      200
// @Failure      404  {object}  map[string]string
// @Router       /uploads/{name} [get]
func (h *MediaHandler) Serve(c echo.Context) error {
	name := strings.TrimPrefix(path.Clean("/"+c.Param("*")), "/")
	if name == "" || name == "." {
		return domain.ErrMediaNotFound
	}

	r, obj, err := h.store.Open(c.Request().Context(), name)
	if err != nil {
		return err
	}
	defer r.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=86400, immutable")
	return c.Stream(http.StatusOK, contentType, r)
}
