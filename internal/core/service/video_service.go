package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/api/metrics"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

const videoPrefix = "video"

// VideoService stores standalone videos outside of any post.
type VideoService struct {
	media   ports.MediaStore
	janitor ports.MediaJanitor
	urls    MediaURLs
	log     zerolog.Logger
}

func NewVideoService(media ports.MediaStore, janitor ports.MediaJanitor, urls MediaURLs, log zerolog.Logger) *VideoService {
	return &VideoService{media: media, janitor: janitor, urls: urls, log: log}
}

// Upload stores file and returns its public URL. Anything that does not
// sniff as video is rejected and removed.
func (s *VideoService) Upload(ctx context.Context, file ports.Upload) (string, error) {
	obj, err := s.media.Save(ctx, videoPrefix, file)
	if err != nil {
		return "", err
	}
	if kind, _ := domain.KindOf(obj.ContentType); kind != domain.MediaVideo {
		s.janitor.Enqueue(obj.Name)
		return "", fmt.Errorf("%w: only video files are accepted", domain.ErrUnsupportedMedia)
	}
	metrics.MediaUploadedBytes.WithLabelValues(string(domain.MediaVideo)).Add(float64(obj.Size))
	s.log.Info().Str("name", obj.Name).Int64("size", obj.Size).Msg("video uploaded")
	return s.urls.URL(obj.Name), nil
}

func (s *VideoService) List(ctx context.Context) ([]string, error) {
	objs, err := s.media.List(ctx, videoPrefix+"/")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, s.urls.URL(o.Name))
	}
	return out, nil
}
