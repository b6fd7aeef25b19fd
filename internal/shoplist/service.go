package shoplist

import (
	"context"
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/store"
)

// Change actions reported to a Notifier.
const (
	ActionListCreated = "list_created"
	ActionItemCreated = "item_created"
	ActionItemUpdated = "item_updated"
	ActionItemPriced  = "item_priced"
	ActionItemDeleted = "item_deleted"
	ActionListSynced  = "list_synced"
	ActionListDeleted = "list_deleted"
)

// Notifier is told about every successful mutation so other holders of the
// same list can refresh.
type Notifier interface {
	ListChanged(listID, action, itemID string)
}

// Service applies the item lifecycle rules on top of a Repository.
type Service struct {
	repo     store.Repository
	notifier Notifier
	renderer Renderer
}

// NewService wraps repo. notifier may be nil.
func NewService(repo store.Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier, renderer: DefaultRenderer()}
}

// SetNotifier replaces the notifier told about mutations.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetRenderer replaces the renderer used by View.
func (s *Service) SetRenderer(r Renderer) {
	s.renderer = r
}

func (s *Service) notify(listID, action, itemID string) {
	if s.notifier != nil {
		s.notifier.ListChanged(listID, action, itemID)
	}
}

func (s *Service) CreateList(ctx context.Context) (string, error) {
	id, err := s.repo.CreateList(ctx)
	if err != nil {
		return "", err
	}
	s.notify(id, ActionListCreated, "")
	return id, nil
}

func (s *Service) Items(ctx context.Context, listID string) ([]model.Item, error) {
	return s.repo.Items(ctx, listID)
}

// AddItem appends a new pending item.
func (s *Service) AddItem(ctx context.Context, listID string, draft model.Draft) ([]model.Item, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	draft.Observation = strings.TrimSpace(draft.Observation)
	if err := validateDescription(draft.Name, draft.Quantity); err != nil {
		return nil, err
	}

	items, err := s.repo.AppendItem(ctx, listID, draft)
	if err != nil {
		return nil, err
	}
	var itemID string
	if len(items) > 0 {
		itemID = items[len(items)-1].ItemID
	}
	s.notify(listID, ActionItemCreated, itemID)
	return items, nil
}

// UpdateItem merges the supplied fields into an item as they are. A nonzero
// price is only accepted for an item that ends up paid, and clearing paid
// also clears the price.
func (s *Service) UpdateItem(ctx context.Context, listID, itemID string, patch model.Patch) ([]model.Item, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name", "is required")
		}
		patch.Name = &name
	}
	if patch.Quantity != nil && *patch.Quantity < 1 {
		return nil, invalid("quantity", "must be at least 1")
	}
	if patch.Observation != nil {
		obs := strings.TrimSpace(*patch.Observation)
		patch.Observation = &obs
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Price != nil && *patch.Price != 0 {
		paid, err := s.endsPaid(ctx, listID, itemID, patch)
		if err != nil {
			return nil, err
		}
		if !paid {
			return nil, invalid("price", "only a paid item can carry a price")
		}
	}
	if patch.Paid != nil && !*patch.Paid {
		zero := 0.0
		patch.Price = &zero
	}

	items, err := s.repo.UpdateItem(ctx, listID, itemID, patch)
	if err != nil {
		return nil, err
	}
	s.notify(listID, ActionItemUpdated, itemID)
	return items, nil
}

// endsPaid reports whether the item is paid once patch is applied.
func (s *Service) endsPaid(ctx context.Context, listID, itemID string, patch model.Patch) (bool, error) {
	if patch.Paid != nil {
		return *patch.Paid, nil
	}
	items, err := s.repo.Items(ctx, listID)
	if err != nil {
		return false, err
	}
	i := model.IndexOf(items, itemID)
	if i < 0 {
		return false, store.ErrItemNotFound
	}
	return items[i].Paid, nil
}

// EditItem changes the descriptive fields of an item. Any confirmed price
// is discarded: the item goes back to pending and must be priced again.
func (s *Service) EditItem(ctx context.Context, listID, itemID, name string, quantity int, observation string) ([]model.Item, error) {
	name = strings.TrimSpace(name)
	observation = strings.TrimSpace(observation)
	if err := validateDescription(name, quantity); err != nil {
		return nil, err
	}

	paid := false
	price := 0.0
	items, err := s.repo.UpdateItem(ctx, listID, itemID, model.Patch{
		Name:        &name,
		Quantity:    &quantity,
		Observation: &observation,
		Paid:        &paid,
		Price:       &price,
	})
	if err != nil {
		return nil, err
	}
	s.notify(listID, ActionItemUpdated, itemID)
	return items, nil
}

// ConfirmPrice moves a pending item to priced.
func (s *Service) ConfirmPrice(ctx context.Context, listID, itemID string, amount float64, mode PriceMode) ([]model.Item, error) {
	if err := validatePrice(amount); err != nil {
		return nil, err
	}

	items, err := s.repo.Items(ctx, listID)
	if err != nil {
		return nil, err
	}
	i := model.IndexOf(items, itemID)
	if i < 0 {
		return nil, store.ErrItemNotFound
	}
	if items[i].Paid {
		return nil, invalid("paid", "item already has a confirmed price")
	}

	final, err := FinalPrice(amount, items[i].Quantity, mode)
	if err != nil {
		return nil, err
	}

	paid := true
	items, err = s.repo.UpdateItem(ctx, listID, itemID, model.Patch{Paid: &paid, Price: &final})
	if err != nil {
		return nil, err
	}
	s.notify(listID, ActionItemPriced, itemID)
	return items, nil
}

func (s *Service) DeleteItem(ctx context.Context, listID, itemID string) ([]model.Item, error) {
	items, err := s.repo.DeleteItem(ctx, listID, itemID)
	if err != nil {
		return nil, err
	}
	s.notify(listID, ActionItemDeleted, itemID)
	return items, nil
}

// Import replaces the whole list with the sanitized form of raw, a decoded
// JSON array.
func (s *Service) Import(ctx context.Context, listID string, raw any) ([]model.Item, error) {
	items, err := Sanitize(raw)
	if err != nil {
		return nil, err
	}
	return s.ReplaceAll(ctx, listID, items)
}

// ReplaceAll overwrites the list with items after re-sanitizing them.
func (s *Service) ReplaceAll(ctx context.Context, listID string, items []model.Item) ([]model.Item, error) {
	out, err := s.repo.ReplaceAll(ctx, listID, SanitizeItems(items))
	if err != nil {
		return nil, err
	}
	s.notify(listID, ActionListSynced, "")
	return out, nil
}

// DeleteList removes the list. Whoever held its ID loses access for good.
func (s *Service) DeleteList(ctx context.Context, listID string) error {
	if err := s.repo.DeleteList(ctx, listID); err != nil {
		return err
	}
	s.notify(listID, ActionListDeleted, "")
	return nil
}

// View renders the list through the filter/sort pipeline.
func (s *Service) View(ctx context.Context, listID string, q Query) (Model, error) {
	items, err := s.repo.Items(ctx, listID)
	if err != nil {
		return Model{}, err
	}
	return s.renderer.Render(items, q), nil
}

func validateDescription(name string, quantity int) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if quantity < 1 {
		return invalid("quantity", "must be at least 1")
	}
	return nil
}
