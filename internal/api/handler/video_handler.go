package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/core/ports"
)

type VideoHandler struct {
	videos    ports.VideoService
	maxUpload int64
}

func NewVideoHandler(videos ports.VideoService, maxUpload int64) *VideoHandler {
	return &VideoHandler{videos: videos, maxUpload: maxUpload}
}

// Upload handles POST /video/upload.
//
// @Summary      Upload video
// @Tags         videos
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Video"
// @Success      201   {object}  videoResponse
// @Failure      415   {object}  map[string]string
// @Router       /video/upload [post]
func (h *VideoHandler) Upload(c echo.Context) error {
	file, err := formFile(c, "file", h.maxUpload)
	if err != nil {
		return err
	}
	url, err := h.videos.Upload(c.Request().Context(), file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, videoResponse{URL: url})
}

// List handles GET /video and returns public URLs.
//
// @Summary      List videos
// @Tags         videos
// @Produce      json
// @Success      200  {array}  string
// @Router       /video [get]
func (h *VideoHandler) List(c echo.Context) error {
	urls, err := h.videos.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, urls)
}
