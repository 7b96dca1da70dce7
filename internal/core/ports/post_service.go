package ports

import (
	"context"
	"time"
)

// PostView is a post with media names rendered as public URLs.
type PostView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Images    []string  `json:"images"`
	Videos    []string  `json:"videos"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostService manages posts and their attached media.
type PostService interface {
	Create(ctx context.Context, title string, files []Upload) (*PostView, error)
	List(ctx context.Context) ([]*PostView, error)
	Get(ctx context.Context, id int64) (*PostView, error)
	Update(ctx context.Context, id int64, title *string, files []Upload) (*PostView, error)
	ReplaceFile(ctx context.Context, id int64, oldURL string, file Upload) (*PostView, error)
	DeleteFile(ctx context.Context, id int64, fileURL string) error
	Delete(ctx context.Context, id int64) error
}

// VideoService handles standalone video uploads.
type VideoService interface {
	Upload(ctx context.Context, file Upload) (string, error)
	List(ctx context.Context) ([]string, error)
}
