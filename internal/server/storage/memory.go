package storage

import (
	"context"
	"strings"
	"sync"
)

// Object is a blob held by MemoryStore.
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryStore keeps uploaded images in process memory. URLs are built from
// baseURL, which should point at a route serving Get.
type MemoryStore struct {
	baseURL string

	mu      sync.RWMutex
	ready   bool
	objects map[string]Object
}

var _ ImageStore = (*MemoryStore)(nil)

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

func (m *MemoryStore) EnsureContainer(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.ready = true
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[name] = Object{Data: buf, ContentType: contentType}
	m.mu.Unlock()

	return m.baseURL + "/" + name, nil
}

// Get returns a stored object.
func (m *MemoryStore) Get(name string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[name]
	return o, ok
}

// Ready reports whether EnsureContainer has been called.
func (m *MemoryStore) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}
