package ports

import (
	"context"
	"io"

	"github.com/classmates/content-api/internal/core/domain"
)

// Upload is a file received from a client. ContentType is the type declared
// by the client; stores sniff the content themselves.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// MediaStore persists uploaded objects under generated names.
type MediaStore interface {
	// Save stores the upload under prefix and returns the object with its
	// generated name and sniffed content type.
	Save(ctx context.Context, prefix string, file Upload) (*domain.MediaObject, error)
	Open(ctx context.Context, name string) (io.ReadCloser, *domain.MediaObject, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context, prefix string) ([]domain.MediaObject, error)
}

// MediaJanitor schedules removal of objects that are no longer referenced.
type MediaJanitor interface {
	Enqueue(names ...string)
}
