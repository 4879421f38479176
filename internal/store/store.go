// Package store persists the whole post collection as a single document.
// Every backend reads and writes the document wholesale; there are no
// partial updates.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"pepeboard/internal/models"
)

// Store loads and saves the full post collection.
//
// Load creates an empty document on first use. Any I/O or decode failure is
// returned as a models.NewStorageError and the caller must not proceed with
// a partial collection.
type Store interface {
	Name() string
	Load(ctx context.Context) (models.Collection, error)
	Save(ctx context.Context, posts models.Collection) error
	Close() error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Store  = (*FileStore)(nil)
	_ Store  = (*RedisStore)(nil)
	_ Store  = (*DocumentStore)(nil)
	_ Store  = (*ObjectStore)(nil)
	_ Store  = (*instrumented)(nil)
	_ Pinger = (*RedisStore)(nil)
	_ Pinger = (*DocumentStore)(nil)
	_ Pinger = (*instrumented)(nil)
)

// emptyDocument is the serialized form of a board with no posts.
var emptyDocument = []byte("[]")

// encode serializes the collection as a pretty-printed JSON array.
func encode(posts models.Collection) ([]byte, error) {
	if posts == nil {
		posts = models.Collection{}
	}
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode posts: %w", err)
	}
	return data, nil
}

// decode parses a stored document. Blank documents count as empty boards.
func decode(data []byte) (models.Collection, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Collection{}, nil
	}
	var posts models.Collection
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts.Normalize(), nil
}
