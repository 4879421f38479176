package store

import (
	"context"
	"sync"

	"pepeboard/internal/models"
)

// MemoryStore keeps the document in process memory. Loads and saves copy the
// collection so callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	posts models.Collection
}

// NewMemoryStore returns a store seeded with a copy of initial.
func NewMemoryStore(initial models.Collection) *MemoryStore {
	return &MemoryStore{posts: initial.Clone()}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Load(ctx context.Context) (models.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.posts.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, posts models.Collection) error {
	if err := ctx.Err(); err != nil {
		return models.NewStorageError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts.Clone()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
