package session

import (
	"context"
	"sync"

	"github.com/de-tools/wasteops/pkg/store/kv"
)

type memoryBackend struct {
	mu       sync.Mutex
	sessions map[string]kv.Storage
}

// NewMemoryBackend keeps session contexts in process memory. They are lost on restart.
func NewMemoryBackend() Backend {
	return &memoryBackend{sessions: make(map[string]kv.Storage)}
}

func (b *memoryBackend) Storage(id string) (kv.Storage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[id]
	if !ok {
		s = kv.NewMemory()
		b.sessions[id] = s
	}
	return s, nil
}

func (b *memoryBackend) Touch(context.Context, string) error {
	return nil
}

func (b *memoryBackend) Clear(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.sessions, id)
	return nil
}
