package blob

import (
	"context"
	"io"
	"sync"

	"github.com/Laisky/errors/v2"
)

// Object is a stored blob kept by Memory
type Object struct {
	ContentType string
	Data        []byte
}

// Memory keeps blobs in process
type Memory struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]Object
}

// NewMemory create memory blob store, URLs are prefixed by baseURL
func NewMemory(baseURL string) *Memory {
	return &Memory{
		baseURL: baseURL,
		objects: map[string]Object{},
	}
}

// Put implements Store
func (m *Memory) Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "read upload")
	}
	if err = ctx.Err(); err != nil {
		return "", errors.WithStack(err)
	}

	m.mu.Lock()
	m.objects[objectPath] = Object{ContentType: contentType, Data: data}
	m.mu.Unlock()

	return publicURL(m.baseURL, objectPath), nil
}

// Delete implements Store
func (m *Memory) Delete(_ context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[objectPath]; !ok {
		return errors.Wrap(ErrNotFound, objectPath)
	}
	delete(m.objects, objectPath)
	return nil
}

// Get returns a stored object
func (m *Memory) Get(objectPath string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[objectPath]
	return obj, ok
}
