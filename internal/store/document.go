package store

import (
	"context"
	"time"

	"github.com/dukerupert/shoplist/internal/model"
)

// DocumentBackend stores whole list documents. Update must apply fn and
// persist the result as one unit: readers see either the old or the new
// document, never a mix.
type DocumentBackend interface {
	Create(ctx context.Context, list *model.List) error
	Load(ctx context.Context, listID string) (*model.List, error)
	Update(ctx context.Context, listID string, fn func(*model.List) error) (*model.List, error)
	Delete(ctx context.Context, listID string) error
}

// DocumentStore implements Repository on top of a DocumentBackend.
type DocumentStore struct {
	backend DocumentBackend
	now     func() time.Time
}

func NewDocumentStore(backend DocumentBackend) *DocumentStore {
	return &DocumentStore{backend: backend, now: time.Now}
}

func (s *DocumentStore) CreateList(ctx context.Context) (string, error) {
	list := model.NewList(s.now())
	if err := s.backend.Create(ctx, list); err != nil {
		return "", err
	}
	return list.ID, nil
}

func (s *DocumentStore) Items(ctx context.Context, listID string) ([]model.Item, error) {
	list, err := s.backend.Load(ctx, listID)
	if err != nil {
		return nil, err
	}
	return model.Clone(list.Items), nil
}

func (s *DocumentStore) AppendItem(ctx context.Context, listID string, draft model.Draft) ([]model.Item, error) {
	return s.update(ctx, listID, func(l *model.List) error {
		l.Items = append(l.Items, model.NewItem(draft))
		return nil
	})
}

func (s *DocumentStore) UpdateItem(ctx context.Context, listID, itemID string, patch model.Patch) ([]model.Item, error) {
	return s.update(ctx, listID, func(l *model.List) error {
		i := model.IndexOf(l.Items, itemID)
		if i < 0 {
			return ErrItemNotFound
		}
		patch.Apply(&l.Items[i])
		return nil
	})
}

func (s *DocumentStore) DeleteItem(ctx context.Context, listID, itemID string) ([]model.Item, error) {
	return s.update(ctx, listID, func(l *model.List) error {
		i := model.IndexOf(l.Items, itemID)
		if i < 0 {
			return ErrItemNotFound
		}
		l.Items = append(l.Items[:i], l.Items[i+1:]...)
		return nil
	})
}

func (s *DocumentStore) ReplaceAll(ctx context.Context, listID string, items []model.Item) ([]model.Item, error) {
	return s.update(ctx, listID, func(l *model.List) error {
		l.Items = model.Clone(items)
		return nil
	})
}

func (s *DocumentStore) DeleteList(ctx context.Context, listID string) error {
	return s.backend.Delete(ctx, listID)
}

func (s *DocumentStore) update(ctx context.Context, listID string, fn func(*model.List) error) ([]model.Item, error) {
	list, err := s.backend.Update(ctx, listID, fn)
	if err != nil {
		return nil, err
	}
	return model.Clone(list.Items), nil
}
