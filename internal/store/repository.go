package store

import (
	"context"
	"errors"

	"github.com/dukerupert/shoplist/internal/model"
)

var (
	ErrListNotFound = errors.New("list not found")
	ErrItemNotFound = errors.New("item not found")
)

// Repository persists shopping lists. Every mutation returns the full
// refreshed item collection so callers replace their copy wholesale.
//
// Implementations are interchangeable; concurrent writers to the same list
// race and the last write wins.
type Repository interface {
	CreateList(ctx context.Context) (string, error)
	Items(ctx context.Context, listID string) ([]model.Item, error)
	AppendItem(ctx context.Context, listID string, draft model.Draft) ([]model.Item, error)
	UpdateItem(ctx context.Context, listID, itemID string, patch model.Patch) ([]model.Item, error)
	DeleteItem(ctx context.Context, listID, itemID string) ([]model.Item, error)
	ReplaceAll(ctx context.Context, listID string, items []model.Item) ([]model.Item, error)
	DeleteList(ctx context.Context, listID string) error
}
