package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/classmates/content-api/internal/api/metrics"
	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

const postPrefix = "post"

// PostService manages posts. Replaced and removed media are handed to the
// janitor so requests never wait on storage cleanup.
type PostService struct {
	posts   ports.PostRepository
	media   ports.MediaStore
	janitor ports.MediaJanitor
	urls    MediaURLs
	log     zerolog.Logger
}

func NewPostService(
	posts ports.PostRepository,
	media ports.MediaStore,
	janitor ports.MediaJanitor,
	urls MediaURLs,
	log zerolog.Logger,
) *PostService {
	return &PostService{posts: posts, media: media, janitor: janitor, urls: urls, log: log}
}

func (s *PostService) Create(ctx context.Context, title string, files []ports.Upload) (*ports.PostView, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	images, videos, err := s.store(ctx, files)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.Create(ctx, &domain.Post{Title: title, Images: images, Videos: videos})
	if err != nil {
		s.janitor.Enqueue(append(images, videos...)...)
		return nil, err
	}
	s.log.Info().Int64("post_id", post.ID).Int("files", len(files)).Msg("post created")
	return s.view(post), nil
}

func (s *PostService) List(ctx context.Context) ([]*ports.PostView, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ports.PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, s.view(p))
	}
	return out, nil
}

func (s *PostService) Get(ctx context.Context, id int64) (*ports.PostView, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(post), nil
}

// Update changes the title when given and appends any new files.
func (s *PostService) Update(ctx context.Context, id int64, title *string, files []ports.Upload) (*ports.PostView, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
		}
		post.Title = t
	}

	images, videos, err := s.store(ctx, files)
	if err != nil {
		return nil, err
	}
	post.Images = append(post.Images, images...)
	post.Videos = append(post.Videos, videos...)

	updated, err := s.posts.Update(ctx, post)
	if err != nil {
		s.janitor.Enqueue(append(images, videos...)...)
		return nil, err
	}
	return s.view(updated), nil
}

// ReplaceFile swaps the file at oldURL for file, keeping its position. The
// new file lands in the list matching its own kind.
func (s *PostService) ReplaceFile(ctx context.Context, id int64, oldURL string, file ports.Upload) (*ports.PostView, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldName := s.urls.Name(oldURL)
	oldKind, idx := locate(post, oldName)
	if idx < 0 {
		return nil, domain.ErrMediaNotFound
	}

	obj, kind, err := s.save(ctx, file)
	if err != nil {
		return nil, err
	}

	if kind == oldKind {
		list(post, kind)[idx] = obj.Name
	} else {
		removeAt(post, oldKind, idx)
		appendTo(post, kind, obj.Name)
	}

	updated, err := s.posts.Update(ctx, post)
	if err != nil {
		s.janitor.Enqueue(obj.Name)
		return nil, err
	}
	s.janitor.Enqueue(oldName)
	return s.view(updated), nil
}

func (s *PostService) DeleteFile(ctx context.Context, id int64, fileURL string) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	name := s.urls.Name(fileURL)
	kind, idx := locate(post, name)
	if idx < 0 {
		return domain.ErrMediaNotFound
	}
	removeAt(post, kind, idx)

	if _, err := s.posts.Update(ctx, post); err != nil {
		return err
	}
	s.janitor.Enqueue(name)
	return nil
}

func (s *PostService) Delete(ctx context.Context, id int64) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.janitor.Enqueue(post.Files()...)
	s.log.Info().Int64("post_id", id).Int("files", len(post.Files())).Msg("post deleted")
	return nil
}

// store saves every upload and splits the names by sniffed kind. On failure
// the files saved so far are scheduled for removal.
func (s *PostService) store(ctx context.Context, files []ports.Upload) (images, videos []string, err error) {
	for _, f := range files {
		obj, kind, err := s.save(ctx, f)
		if err != nil {
			s.janitor.Enqueue(append(images, videos...)...)
			return nil, nil, err
		}
		if kind == domain.MediaImage {
			images = append(images, obj.Name)
		} else {
			videos = append(videos, obj.Name)
		}
	}
	return images, videos, nil
}

func (s *PostService) save(ctx context.Context, f ports.Upload) (*domain.MediaObject, domain.MediaKind, error) {
	obj, err := s.media.Save(ctx, postPrefix, f)
	if err != nil {
		return nil, "", err
	}
	kind, ok := domain.KindOf(obj.ContentType)
	if !ok {
		s.janitor.Enqueue(obj.Name)
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, obj.ContentType)
	}
	metrics.MediaUploadedBytes.WithLabelValues(string(kind)).Add(float64(obj.Size))
	return obj, kind, nil
}

func (s *PostService) view(p *domain.Post) *ports.PostView {
	return &ports.PostView{
		ID:        p.ID,
		Title:     p.Title,
		Images:    s.urls.URLs(p.Images),
		Videos:    s.urls.URLs(p.Videos),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func locate(p *domain.Post, name string) (domain.MediaKind, int) {
	if name == "" {
		return "", -1
	}
	if i := slices.Index(p.Images, name); i >= 0 {
		return domain.MediaImage, i
	}
	if i := slices.Index(p.Videos, name); i >= 0 {
		return domain.MediaVideo, i
	}
	return "", -1
}

func list(p *domain.Post, kind domain.MediaKind) []string {
	if kind == domain.MediaImage {
		return p.Images
	}
	return p.Videos
}

func removeAt(p *domain.Post, kind domain.MediaKind, i int) {
	if kind == domain.MediaImage {
		p.Images = slices.Delete(p.Images, i, i+1)
		return
	}
	p.Videos = slices.Delete(p.Videos, i, i+1)
}

func appendTo(p *domain.Post, kind domain.MediaKind, name string) {
	if kind == domain.MediaImage {
		p.Images = append(p.Images, name)
		return
	}
	p.Videos = append(p.Videos, name)
}
