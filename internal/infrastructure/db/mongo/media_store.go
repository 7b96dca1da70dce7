package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/classmates/content-api/internal/core/domain"
	"github.com/classmates/content-api/internal/core/ports"
)

const (
	mediaBucket = "media"
	// sniffLen matches the default read limit of mimetype.
	sniffLen = 3072
)

// MediaStore keeps uploads in a GridFS bucket. Object names look like
// "<prefix>/<ulid><ext>" and sort by upload time.
type MediaStore struct {
	bucket *gridfs.Bucket
}

var _ ports.MediaStore = (*MediaStore)(nil)

func NewMediaStore(db *mongo.Database) (*MediaStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(mediaBucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return &MediaStore{bucket: bucket}, nil
}

type gridFile struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"filename"`
	Length     int64              `bson:"length"`
	UploadDate time.Time          `bson:"uploadDate"`
	Metadata   struct {
		ContentType string `bson:"contentType"`
	} `bson:"metadata"`
}

func (f gridFile) toDomain() domain.MediaObject {
	return domain.MediaObject{
		Name:        f.Name,
		ContentType: f.Metadata.ContentType,
		Size:        f.Length,
		UploadedAt:  f.UploadDate.UTC(),
	}
}

// Save sniffs the upload, refuses anything that is not an image or a video,
// and streams the rest into GridFS. The client's declared content type is
// ignored.
func (s *MediaStore) Save(ctx context.Context, prefix string, file ports.Upload) (*domain.MediaObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	if _, ok := domain.KindOf(mt.String()); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, mt.String())
	}

	name := prefix + "/" + ulid.Make().String() + mt.Extension()
	body := &countingReader{r: io.MultiReader(bytes.NewReader(head), src)}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: mt.String()}})

	if _, err := s.bucket.UploadFromStream(name, body, opts); err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}

	return &domain.MediaObject{
		Name:        name,
		ContentType: mt.String(),
		Size:        body.n,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// Open returns a reader over the named object. Callers must close it.
func (s *MediaStore) Open(ctx context.Context, name string) (io.ReadCloser, *domain.MediaObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	stream, err := s.bucket.OpenDownloadStreamByName(name)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.ErrMediaNotFound
		}
		return nil, nil, fmt.Errorf("open %s: %w", name, err)
	}

	f := stream.GetFile()
	obj := &domain.MediaObject{
		Name:        f.Name,
		Size:        f.Length,
		UploadedAt:  f.UploadDate.UTC(),
		ContentType: "application/octet-stream",
	}
	if v, err := f.Metadata.LookupErr("contentType"); err == nil {
		if ct, ok := v.StringValueOK(); ok && ct != "" {
			obj.ContentType = ct
		}
	}
	return stream, obj, nil
}

// Delete removes every revision stored under name.
func (s *MediaStore) Delete(ctx context.Context, name string) error {
	files, err := s.find(ctx, bson.M{"filename": name})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return domain.ErrMediaNotFound
	}
	for _, f := range files {
		if err := s.bucket.Delete(f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}

// List returns the objects whose names start with prefix, newest first.
func (s *MediaStore) List(ctx context.Context, prefix string) ([]domain.MediaObject, error) {
	filter := bson.M{"filename": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	files, err := s.find(ctx, filter, options.GridFSFind().SetSort(bson.D{{Key: "uploadDate", Value: -1}}))
	if err != nil {
		return nil, err
	}
	out := make([]domain.MediaObject, 0, len(files))
	for _, f := range files {
		out = append(out, f.toDomain())
	}
	return out, nil
}

func (s *MediaStore) find(ctx context.Context, filter bson.M, opts ...*options.GridFSFindOptions) ([]gridFile, error) {
	cur, err := s.bucket.Find(filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find media: %w", err)
	}
	var files []gridFile
	if err := cur.All(ctx, &files); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	return files, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
