package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	gcs "cloud.google.com/go/storage"

	"github.com/tembea/server/domain/repositories"
)

// GoogleCloudStorage implements BlobStorage backed by a single GCS
// bucket. The client is safe to share across concurrent sessions.
type GoogleCloudStorage struct {
	client *gcs.Client
	bucket string
}

// NewGoogleCloudStorage creates the shared storage client using
// application default credentials.
func NewGoogleCloudStorage(ctx context.Context, bucket string) (*GoogleCloudStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GoogleCloudStorage{client: client, bucket: bucket}, nil
}

// Close releases the underlying connection.
func (s *GoogleCloudStorage) Close() error {
	return s.client.Close()
}

// Upload copies the file at localPath to the bucket under key and
// returns its gs:// locator. One attempt; the caller owns retry policy.
func (s *GoogleCloudStorage) Upload(ctx context.Context, localPath string, key string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close()

	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return "", fmt.Errorf("upload to gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finish upload to gs://%s/%s: %w", s.bucket, key, err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

// Delete removes an uploaded object by key.
func (s *GoogleCloudStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

var _ repositories.BlobStorage = &GoogleCloudStorage{}
