package domain

import (
	"strings"
	"time"
)

// Post is a piece of published content with attached media. Images and
// Videos hold stored object names, not URLs.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Images    []string  `json:"images"`
	Videos    []string  `json:"videos"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Files returns every media object referenced by the post.
func (p *Post) Files() []string {
	out := make([]string, 0, len(p.Images)+len(p.Videos))
	out = append(out, p.Images...)
	return append(out, p.Videos...)
}

// MediaKind classifies an uploaded object.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaObject describes a stored upload.
type MediaObject struct {
	Name        string
	ContentType string
	Size        int64
	UploadedAt  time.Time
}

// KindOf classifies a content type. ok is false for anything that is neither
// an image nor a video.
func KindOf(contentType string) (kind MediaKind, ok bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaImage, true
	case strings.HasPrefix(contentType, "video/"):
		return MediaVideo, true
	}
	return "", false
}
