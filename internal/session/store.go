package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoCheckpoint is returned by CheckpointStore.Read when no snapshot is
// stored under the key. The engine treats it as "start fresh".
var ErrNoCheckpoint = errors.New("session: no checkpoint")

// CheckpointStore is the single durable slot a session persists into.
// Implementations must tolerate missing keys (ErrNoCheckpoint); the engine
// tolerates malformed payloads itself.
type CheckpointStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

// MemoryStore is an in-process CheckpointStore used by tests and local runs.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.slots[key]
	if !ok {
		return nil, ErrNoCheckpoint
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Write(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.slots[key] = buf
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
