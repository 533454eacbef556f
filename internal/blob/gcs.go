package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// GCSStore stores uploads in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

func NewGCSStore(ctx context.Context, bucket string, logger *slog.Logger) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) error {
	// DoesNotExist enforces the no-overwrite policy server-side.
	obj := s.client.Bucket(s.bucket).Object(key).If(storage.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.CacheControl = opts.CacheControl

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}

	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return ErrObjectExists
		}
		return fmt.Errorf("failed to finalize object: %w", err)
	}

	s.logger.Info("object stored", "bucket", s.bucket, "key", key, "size_bytes", size)
	return nil
}

func (s *GCSStore) Count(ctx context.Context, prefix string) (int, error) {
	bkt := s.client.Bucket(s.bucket)
	query := &storage.Query{Prefix: prefix}

	count := 0
	it := bkt.Objects(ctx, query)
	for {
		_, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to list objects: %w", err)
		}
		count++
	}

	return count, nil
}
