package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukerupert/shoplist/internal/model"
)

// MemoryBackend keeps list documents in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	lists map[string]*model.List
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{lists: make(map[string]*model.List)}
}

// NewMemoryStore returns a Repository backed by process memory.
func NewMemoryStore() *DocumentStore {
	return NewDocumentStore(NewMemoryBackend())
}

func (b *MemoryBackend) Create(_ context.Context, list *model.List) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.lists[list.ID]; ok {
		return fmt.Errorf("create list %s: already exists", list.ID)
	}
	b.lists[list.ID] = copyList(list)
	return nil
}

func (b *MemoryBackend) Load(_ context.Context, listID string) (*model.List, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list, ok := b.lists[listID]
	if !ok {
		return nil, ErrListNotFound
	}
	return copyList(list), nil
}

func (b *MemoryBackend) Update(_ context.Context, listID string, fn func(*model.List) error) (*model.List, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := b.lists[listID]
	if !ok {
		return nil, ErrListNotFound
	}
	next := copyList(current)
	if err := fn(next); err != nil {
		return nil, err
	}
	b.lists[listID] = next
	return copyList(next), nil
}

func (b *MemoryBackend) Delete(_ context.Context, listID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.lists[listID]; !ok {
		return ErrListNotFound
	}
	delete(b.lists, listID)
	return nil
}

func copyList(l *model.List) *model.List {
	c := *l
	c.Items = model.Clone(l.Items)
	return &c
}
