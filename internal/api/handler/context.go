package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/classmates/content-api/internal/api/middleware"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

// ctxPrincipal returns the principal attached by the authentication guard.
// Its absence means the route was registered without a guard.
func ctxPrincipal(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// bindValid binds the request into req and runs the registered validator.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func toUpload(fh *multipart.FileHeader) ports.Upload {
	return ports.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// formFiles collects the uploads under field, enforcing count and size caps.
func formFiles(c echo.Context, field string, maxFiles int, maxBytes int64) ([]ports.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "expected multipart form data")
	}
	headers := form.File[field]
	if len(headers) > maxFiles {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "at most "+strconv.Itoa(maxFiles)+" files are allowed")
	}
	out := make([]ports.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxBytes {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fh.Filename+" exceeds the upload size limit")
		}
		out = append(out, toUpload(fh))
	}
	return out, nil
}

// formFile returns the single required upload under field.
func formFile(c echo.Context, field string, maxBytes int64) (ports.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return ports.Upload{}, echo.NewHTTPError(http.StatusBadRequest, field+" is required")
	}
	if fh.Size > maxBytes {
		return ports.Upload{}, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fh.Filename+" exceeds the upload size limit")
	}
	return toUpload(fh), nil
}
