package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pepeboard/internal/models"
)

// FileStore keeps the document in a local JSON file. Writes go to a temp
// file in the same directory and are renamed into place.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return "file" }

// Path returns the document location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (models.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError(err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if werr := s.write(emptyDocument); werr != nil {
			return nil, models.NewStorageError(werr)
		}
		return models.Collection{}, nil
	}
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("read %s: %w", s.path, err))
	}

	posts, err := decode(data)
	if err != nil {
		return nil, models.NewStorageError(fmt.Errorf("%s: %w", s.path, err))
	}
	return posts, nil
}

func (s *FileStore) Save(ctx context.Context, posts models.Collection) error {
	if err := ctx.Err(); err != nil {
		return models.NewStorageError(err)
	}
	data, err := encode(posts)
	if err != nil {
		return models.NewStorageError(err)
	}
	if err := s.write(data); err != nil {
		return models.NewStorageError(err)
	}
	return nil
}

func (s *FileStore) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename into %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
