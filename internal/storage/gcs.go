package storage

import (
	"context"
	"errors"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore uses application default credentials unless opts override them.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: bucket}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

// Upload writes the object privately; student documents are never public.
func (s *GCSStore) Upload(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return key, nil
}

func (s *GCSStore) Download(ctx context.Context, storedPath string) (io.ReadCloser, error) {
	rc, err := s.client.Bucket(s.bucket).Object(storedPath).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	return rc, err
}

func (s *GCSStore) Exists(ctx context.Context, storedPath string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(storedPath).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *GCSStore) Delete(ctx context.Context, storedPath string) error {
	err := s.client.Bucket(s.bucket).Object(storedPath).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}
