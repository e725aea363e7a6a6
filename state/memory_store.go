package state

import (
	"bytes"
	"sync"
)

func NewMemBackend() *MemBackend {
	return &MemBackend{
		store: make(map[string][]byte, 16),
	}
}

// MemBackend keeps stored content in process memory. Nothing survives the
// process.
type MemBackend struct {
	store map[string][]byte
	mu    sync.Mutex
}

var _ Backend = &MemBackend{}

func (b *MemBackend) Read(path string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, exists := b.store[path]
	if !exists {
		return nil, notFound(path)
	}
	return bytes.Clone(data), nil
}

func (b *MemBackend) Write(path string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store[path] = append([]byte{}, data...)
	return nil
}

func (b *MemBackend) Delete(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.store, path)
	return nil
}
