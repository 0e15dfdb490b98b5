package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type mockObject struct {
	body        []byte
	contentType string
	modified    time.Time
}

// MockStorageService is an in-memory StorageService for testing
type MockStorageService struct {
	objects map[string]mockObject // keyed by bucket + "/" + key
	mu      sync.RWMutex

	// UploadErr and RemoveErr, when set, are returned by the matching calls
	UploadErr error
	RemoveErr error
}

// NewMockStorageService creates an empty mock storage
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{
		objects: make(map[string]mockObject),
	}
}

// Upload simulates storing an object
func (m *MockStorageService) Upload(ctx context.Context, bucket, key string, body []byte, contentType string, upsert bool) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path := bucket + "/" + key
	if _, exists := m.objects[path]; exists && !upsert {
		return "", fmt.Errorf("%s: %w", path, ErrObjectExists)
	}
	m.objects[path] = mockObject{
		body:        append([]byte(nil), body...),
		contentType: contentType,
		modified:    time.Now(),
	}
	return key, nil
}

// List simulates listing a prefix
func (m *MockStorageService) List(ctx context.Context, bucket, prefix string) ([]StorageObject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var objects []StorageObject
	for path, obj := range m.objects {
		key, ok := strings.CutPrefix(path, bucket+"/")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		objects = append(objects, StorageObject{Key: key, Size: int64(len(obj.body)), LastModified: obj.modified})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// PublicURL returns a fake public URL
func (m *MockStorageService) PublicURL(bucket, key string) string {
	if key == "" {
		return ""
	}
	return fmt.Sprintf("https://storage.test/%s/%s", bucket, key)
}

// SignedURL returns a fake signed URL for an existing object
func (m *MockStorageService) SignedURL(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", nil
	}
	if !m.Exists(bucket, key) {
		return "", fmt.Errorf("file not found in mock storage: %s/%s", bucket, key)
	}
	return fmt.Sprintf("https://storage.test/%s/%s?expires=%d", bucket, key, int(ttl.Seconds())), nil
}

// Remove simulates deleting objects
func (m *MockStorageService) Remove(ctx context.Context, bucket string, keys ...string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.objects, bucket+"/"+key)
	}
	return nil
}

// Exists reports whether an object is stored
func (m *MockStorageService) Exists(bucket, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[bucket+"/"+key]
	return ok
}

// Object returns the stored body and content type
func (m *MockStorageService) Object(bucket, key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+key]
	return obj.body, obj.contentType, ok
}

// Count returns the number of stored objects
func (m *MockStorageService) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
