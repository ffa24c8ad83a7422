package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Blob.Get when the key holds no object.
var ErrNotFound = errors.New("blob not found")

// PutOptions carries the HTTP metadata stored alongside an object.
type PutOptions struct {
	ContentType  string `json:"contentType"`
	CacheControl string `json:"cacheControl"`
}

// Object is a stored blob and its metadata.
type Object struct {
	Data      []byte
	Options   PutOptions
	UpdatedAt time.Time
}

// Blob is an object store holding whole objects by key. A Put replaces any
// previous object atomically: readers see either the old or the new object,
// never a partial one.
type Blob interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	Get(ctx context.Context, key string) (*Object, error)
}

// MemoryBlob is an in-process Blob, used for dry runs and tests.
type MemoryBlob struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryBlob creates an empty in-memory blob store.
func NewMemoryBlob() *MemoryBlob {
	return &MemoryBlob{objects: make(map[string]Object)}
}

// Put stores a copy of data under key.
func (m *MemoryBlob) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = Object{
		Data:      append([]byte(nil), data...),
		Options:   opts,
		UpdatedAt: time.Now(),
	}
	return nil
}

// Get returns a copy of the object under key.
func (m *MemoryBlob) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	obj.Data = append([]byte(nil), obj.Data...)
	return &obj, nil
}
