package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ domain.MediaUploader = (*MinioUploader)(nil)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string

	// Preset is the key prefix uploads are written under
	Preset string

	// PublicURL is the base objects are served from. Defaults to a path-style endpoint URL.
	PublicURL string
}

// objectPutter is the subset of *minio.Client the uploader needs
type objectPutter interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
}

// MinioUploader stores cover images in an S3-compatible bucket
type MinioUploader struct {
	client    objectPutter
	bucket    string
	prefix    string
	publicURL string
}

func NewMinioUploader(cfg Config) (*MinioUploader, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
	}

	return newMinioUploader(cl, cfg.Bucket, cfg.Preset, publicURL), nil
}

func newMinioUploader(client objectPutter, bucket, preset, publicURL string) *MinioUploader {
	return &MinioUploader{
		client:    client,
		bucket:    bucket,
		prefix:    strings.Trim(preset, "/"),
		publicURL: publicURL,
	}
}

// Upload writes the image under a fresh random key and returns its public URL.
// The key doubles as the handle for Discard.
func (m *MinioUploader) Upload(ctx context.Context, img *domain.Image) (*domain.UploadedImage, error) {
	if img == nil || len(img.Content) == 0 {
		return nil, fmt.Errorf("%w: objectstore: no image content", domain.ErrUploadFailed)
	}

	key := m.objectKey(img.Filename)
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Content)
	}

	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(img.Content), int64(len(img.Content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("%w: objectstore: put %s/%s: %w", domain.ErrUploadFailed, m.bucket, key, err)
	}

	return &domain.UploadedImage{
		URL:    m.publicURL + "/" + key,
		Handle: key,
	}, nil
}

// Discard removes the object written by Upload
func (m *MinioUploader) Discard(ctx context.Context, img *domain.UploadedImage) error {
	if img == nil || img.Handle == "" {
		return fmt.Errorf("objectstore: no object key for upload")
	}

	if err := m.client.RemoveObject(ctx, m.bucket, img.Handle, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("objectstore: remove %s/%s: %w", m.bucket, img.Handle, err)
	}
	return nil
}

func (m *MinioUploader) objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	name := uuid.NewString() + ext
	if m.prefix == "" {
		return name
	}
	return m.prefix + "/" + name
}
