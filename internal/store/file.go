package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/dukerupert/shoplist/internal/model"
)

const (
	lockTimeout       = 5 * time.Second
	lockRetryInterval = 10 * time.Millisecond
)

// FileBackend stores each list as <dir>/<listId>.json. Writes hold a flock
// on a sibling .lock file and land via temp file + rename, so readers in any
// process only ever see complete documents.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// NewFileStore returns a Repository that keeps one JSON file per list.
func NewFileStore(dir string) (*DocumentStore, error) {
	b, err := NewFileBackend(dir)
	if err != nil {
		return nil, err
	}
	return NewDocumentStore(b), nil
}

// path maps a list ID to its file. IDs that are not canonical UUIDs never
// name a file.
func (b *FileBackend) path(listID string) (string, bool) {
	id, err := uuid.Parse(listID)
	if err != nil || id.String() != listID {
		return "", false
	}
	return filepath.Join(b.dir, listID+".json"), true
}

func (b *FileBackend) Create(ctx context.Context, list *model.List) error {
	path, ok := b.path(list.ID)
	if !ok {
		return fmt.Errorf("create list: invalid id %q", list.ID)
	}
	return b.withLock(ctx, path, func() error {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("create list %s: already exists", list.ID)
		}
		return b.write(path, list)
	})
}

func (b *FileBackend) Load(_ context.Context, listID string) (*model.List, error) {
	path, ok := b.path(listID)
	if !ok {
		return nil, ErrListNotFound
	}
	return b.read(path)
}

func (b *FileBackend) Update(ctx context.Context, listID string, fn func(*model.List) error) (*model.List, error) {
	path, ok := b.path(listID)
	if !ok {
		return nil, ErrListNotFound
	}
	var list *model.List
	err := b.withLock(ctx, path, func() error {
		var err error
		list, err = b.read(path)
		if err != nil {
			return err
		}
		if err := fn(list); err != nil {
			return err
		}
		return b.write(path, list)
	})
	if errors.Is(err, ErrListNotFound) {
		_ = os.Remove(path + ".lock")
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (b *FileBackend) Delete(ctx context.Context, listID string) error {
	path, ok := b.path(listID)
	if !ok {
		return ErrListNotFound
	}
	err := b.withLock(ctx, path, func() error {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return ErrListNotFound
			}
			return fmt.Errorf("remove list file: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = os.Remove(path + ".lock")
	return nil
}

func (b *FileBackend) withLock(ctx context.Context, path string, fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquire file lock: timed out")
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}

func (b *FileBackend) read(path string) (*model.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrListNotFound
		}
		return nil, fmt.Errorf("read list file: %w", err)
	}
	var list model.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse list file: %w", err)
	}
	if list.Items == nil {
		list.Items = []model.Item{}
	}
	return &list, nil
}

func (b *FileBackend) write(path string, list *model.List) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal list: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename list file: %w", err)
	}
	return nil
}
