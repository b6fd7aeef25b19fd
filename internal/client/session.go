package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
)

// ErrNoList is returned by operations that need a loaded list.
var ErrNoList = errors.New("no list loaded")

// Session is the state of one device: the list it holds and that list's
// items as last returned by the repository. Every operation replaces Items
// with the authoritative result.
type Session struct {
	svc      *shoplist.Service
	state    *StateFile
	renderer shoplist.Renderer

	ListID string
	Items  []model.Item
}

// NewSession runs the item lifecycle against repo, which is either the
// HTTP Client or a local store.
func NewSession(repo store.Repository, state *StateFile) *Session {
	return &Session{
		svc:      shoplist.NewService(repo, nil),
		state:    state,
		renderer: shoplist.DefaultRenderer(),
	}
}

func (s *Session) SetRenderer(r shoplist.Renderer) {
	s.renderer = r
}

// Load fetches the remembered list. With no remembered ID a new list is
// created and remembered. An ID the repository does not know is reported
// as store.ErrListNotFound and left in place.
func (s *Session) Load(ctx context.Context) error {
	id, err := s.state.ListID()
	if err != nil {
		return err
	}
	if id == "" {
		id, err = s.svc.CreateList(ctx)
		if err != nil {
			return fmt.Errorf("create list: %w", err)
		}
		if err := s.state.SetListID(id); err != nil {
			return err
		}
	}

	items, err := s.svc.Items(ctx, id)
	if err != nil {
		s.ListID, s.Items = id, nil
		return err
	}
	s.ListID, s.Items = id, items
	return nil
}

// Create starts a fresh list and remembers it in place of the current one.
func (s *Session) Create(ctx context.Context) error {
	id, err := s.svc.CreateList(ctx)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	if err := s.state.SetListID(id); err != nil {
		return err
	}
	s.ListID, s.Items = id, []model.Item{}
	return nil
}

// Adopt points this device at an existing list. The list is fetched first,
// so an unknown ID leaves the remembered one untouched.
func (s *Session) Adopt(ctx context.Context, listID string) error {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return &shoplist.ValidationError{Field: "listId", Message: "is required"}
	}
	items, err := s.svc.Items(ctx, listID)
	if err != nil {
		return err
	}
	if err := s.state.SetListID(listID); err != nil {
		return err
	}
	s.ListID, s.Items = listID, items
	return nil
}

func (s *Session) Add(ctx context.Context, draft model.Draft) error {
	return s.apply(func(id string) ([]model.Item, error) {
		return s.svc.AddItem(ctx, id, draft)
	})
}

func (s *Session) Edit(ctx context.Context, itemID, name string, quantity int, observation string) error {
	return s.apply(func(id string) ([]model.Item, error) {
		return s.svc.EditItem(ctx, id, itemID, name, quantity, observation)
	})
}

func (s *Session) Price(ctx context.Context, itemID string, amount float64, mode shoplist.PriceMode) error {
	return s.apply(func(id string) ([]model.Item, error) {
		return s.svc.ConfirmPrice(ctx, id, itemID, amount, mode)
	})
}

func (s *Session) Remove(ctx context.Context, itemID string) error {
	return s.apply(func(id string) ([]model.Item, error) {
		return s.svc.DeleteItem(ctx, id, itemID)
	})
}

// Import replaces the list with the JSON array read from r.
func (s *Session) Import(ctx context.Context, r io.Reader) error {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return &shoplist.ValidationError{Field: "file", Message: "is not valid JSON"}
	}
	return s.apply(func(id string) ([]model.Item, error) {
		return s.svc.Import(ctx, id, raw)
	})
}

// Export writes the items as an indented JSON array.
func (s *Session) Export(w io.Writer) error {
	if s.ListID == "" {
		return ErrNoList
	}
	if len(s.Items) == 0 {
		return &shoplist.ValidationError{Message: "the list is empty, nothing to export"}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.Items)
}

// Reset deletes the list for every holder and forgets it locally.
func (s *Session) Reset(ctx context.Context) error {
	if s.ListID == "" {
		return ErrNoList
	}
	if err := s.svc.DeleteList(ctx, s.ListID); err != nil && !errors.Is(err, store.ErrListNotFound) {
		return err
	}
	if err := s.state.Clear(); err != nil {
		return err
	}
	s.ListID, s.Items = "", nil
	return nil
}

// Refresh re-reads the items of the loaded list.
func (s *Session) Refresh(ctx context.Context) error {
	return s.apply(func(id string) ([]model.Item, error) {
		return s.svc.Items(ctx, id)
	})
}

// View renders the loaded items.
func (s *Session) View(q shoplist.Query) shoplist.Model {
	return s.renderer.Render(s.Items, q)
}

// Resolve accepts an item ID or a 1-based row number of the full list.
func (s *Session) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if i := model.IndexOf(s.Items, ref); i >= 0 {
		return ref, nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.Items) {
		return s.Items[n-1].ItemID, nil
	}
	return "", store.ErrItemNotFound
}

func (s *Session) apply(fn func(listID string) ([]model.Item, error)) error {
	if s.ListID == "" {
		return ErrNoList
	}
	items, err := fn(s.ListID)
	if err != nil {
		return err
	}
	s.Items = items
	return nil
}
