package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/core/ports"
)

const maxPostFiles = 10

type PostHandler struct {
	posts     ports.PostService
	maxUpload int64
}

func NewPostHandler(posts ports.PostService, maxUpload int64) *PostHandler {
	return &PostHandler{posts: posts, maxUpload: maxUpload}
}

// Create publishes a post with optional images and videos.
//
// @Summary      Create post
// @Tags         posts
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        title  formData  string  true   "Title"
// @Param        files  formData  file    false  "Images or videos"
// @Success      201    {object}  ports.PostView
// @Failure      400    {object}  map[string]string
// @Failure      415    {object}  map[string]string
// @Router       /post [post]
func (h *PostHandler) Create(c echo.Context) error {
	files, err := formFiles(c, "files", maxPostFiles, h.maxUpload)
	if err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), c.FormValue("title"), files)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// List handles GET /post, newest first.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Success      200  {array}  ports.PostView
// @Router       /post [get]
func (h *PostHandler) List(c echo.Context) error {
	posts, err := h.posts.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

// Get handles GET /post/:id.
//
// @Summary      Get post
// @Tags         posts
// @Produce      json
// @Param        id   path      int  true  "Post id"
// @Success      200  {object}  ports.PostView
// @Failure      404  {object}  map[string]string
// @Router       /post/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	post, err := h.posts.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Update changes the title when the form carries one and appends any
// uploaded files.
//
// @Summary      Update post
// @Tags         posts
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      int     true   "Post id"
// @Param        title  formData  string  false  "Title"
// @Param        files  formData  file    false  "Images or videos to append"
// @Success      200    {object}  ports.PostView
// @Router       /post/{id} [patch]
func (h *PostHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	files, err := formFiles(c, "files", maxPostFiles, h.maxUpload)
	if err != nil {
		return err
	}

	var title *string
	if form, _ := c.MultipartForm(); form != nil {
		if v, ok := form.Value["title"]; ok && len(v) > 0 {
			title = &v[0]
		}
	}

	post, err := h.posts.Update(c.Request().Context(), id, title, files)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// ReplaceFile swaps one attached file for a new upload.
//
// @Summary      Replace post file
// @Tags         posts
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id          path      int     true  "Post id"
// @Param        oldFileUrl  formData  string  true  "URL of the file to replace"
// @Param        file        formData  file    true  "New file"
// @Success      200         {object}  ports.PostView
// @Failure      404         {object}  map[string]string
// @Router       /post/{id}/file [put]
func (h *PostHandler) ReplaceFile(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	file, err := formFile(c, "file", h.maxUpload)
	if err != nil {
		return err
	}
	oldURL := c.FormValue("oldFileUrl")
	if oldURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "oldFileUrl is required")
	}

	post, err := h.posts.ReplaceFile(c.Request().Context(), id, oldURL, file)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// DeleteFile handles DELETE /post/:id/file and detaches one stored file.
//
// @Summary      Remove post file
// @Tags         posts
// @Security     BearerAuth
// @Accept       json
// @Param        id    path      int                true  "Post id"
// @Param        body  body      deleteFileRequest  true  "File"
// @Success      200   {object}  messageResponse
// @Router       /post/{id}/file [delete]
func (h *PostHandler) DeleteFile(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req deleteFileRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	if err := h.posts.DeleteFile(c.Request().Context(), id, req.FileURL); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "file removed"})
}

// Delete handles DELETE /post/:id.
//
// @Summary      Delete post
// @Tags         posts
// @Security     BearerAuth
// @Param        id  path  int  true  "Post id"
// @Success      204
// @Router       /post/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.posts.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
