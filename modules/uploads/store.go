package uploads

import (
	"context"
	"fmt"
	"time"

	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
)

// ImageStore persists image bytes under a key along with their headers.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte, headers map[string]string) error
	// Get returns found=false when no object is stored under key.
	Get(ctx context.Context, key string) (data []byte, headers map[string]string, found bool, err error)
}

// bucketStore stores images in an fs-jetstream object bucket.
type bucketStore struct {
	bucket fsjetstream.FileStoragePort
}

var _ ImageStore = (*bucketStore)(nil)

// NewBucketStore wraps an fs-jetstream bucket.
func NewBucketStore(bucket fsjetstream.FileStoragePort) ImageStore {
	return &bucketStore{bucket: bucket}
}

func (s *bucketStore) Put(ctx context.Context, key string, data []byte, headers map[string]string) error {
	if _, err := s.bucket.Put(ctx, key, data,
		fsjetstream.WithDescription("Image: "+key),
		fsjetstream.WithHeaders(headers),
	); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}
	return nil
}

func (s *bucketStore) Get(_ context.Context, key string) ([]byte, map[string]string, bool, error) {
	objects, err := s.bucket.List(fsjetstream.WithPrefix(key))
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to list images: %w", err)
	}
	for _, obj := range objects {
		if obj.Name != key {
			continue
		}
		data, err := s.bucket.Get(obj.Name)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to get image: %w", err)
		}
		return data, obj.Headers, true, nil
	}
	return nil, nil, false, nil
}

func uploadedAt() string {
	return time.Now().UTC().Format(time.RFC3339)
}
