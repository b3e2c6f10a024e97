package storage

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// MockBlobStorage is an in-memory stand-in for the remote object store.
// It records every uploaded object so tests can inspect bytes and keys.
type MockBlobStorage struct {
	logger *zap.Logger

	// UploadErr, if set, fails every upload.
	UploadErr error

	mu      sync.Mutex
	objects map[string][]byte
	uploads int
}

// NewMockBlobStorage creates a new in-memory blob store
func NewMockBlobStorage(logger *zap.Logger) *MockBlobStorage {
	return &MockBlobStorage{
		logger:  logger,
		objects: make(map[string][]byte),
	}
}

// Upload reads the local file into memory under key.
func (m *MockBlobStorage) Upload(ctx context.Context, localPath string, key string) (string, error) {
	if m.UploadErr != nil {
		return "", fmt.Errorf("mock upload: %w", m.UploadErr)
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("mock upload read %s: %w", localPath, err)
	}

	m.mu.Lock()
	m.objects[key] = data
	m.uploads++
	m.mu.Unlock()

	m.logger.Info("Mock upload stored",
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return "mock://" + key, nil
}

// Delete removes an object from the in-memory store.
func (m *MockBlobStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Object returns the stored bytes for key.
func (m *MockBlobStorage) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}

// Uploads returns how many upload calls were made.
func (m *MockBlobStorage) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// Keys returns every stored object key.
func (m *MockBlobStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	return keys
}
