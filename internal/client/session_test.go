package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/server"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
)

func newState(t *testing.T) *StateFile {
	t.Helper()
	return NewStateFile(filepath.Join(t.TempDir(), "state", "state.json"))
}

func TestStateFile(t *testing.T) {
	st := newState(t)
	id, err := st.ListID()
	if err != nil || id != "" {
		t.Fatalf("empty state = %q, %v", id, err)
	}
	if err := st.SetListID("abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if id, _ := st.ListID(); id != "abc" {
		t.Errorf("id = %q, want abc", id)
	}
	if err := st.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if id, _ := st.ListID(); id != "" {
		t.Errorf("id after clear = %q", id)
	}
	if err := st.Clear(); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestSessionLoadCreatesList(t *testing.T) {
	ctx := context.Background()
	st := newState(t)
	s := NewSession(store.NewMemoryStore(), st)

	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.ListID == "" || s.Items == nil || len(s.Items) != 0 {
		t.Fatalf("session = %+v", s)
	}
	if id, _ := st.ListID(); id != s.ListID {
		t.Errorf("remembered id = %q, want %q", id, s.ListID)
	}
}

func TestSessionLoadUnknownListIsReported(t *testing.T) {
	ctx := context.Background()
	st := newState(t)
	st.SetListID("00000000-0000-4000-8000-000000000000")
	s := NewSession(store.NewMemoryStore(), st)

	if err := s.Load(ctx); !errors.Is(err, store.ErrListNotFound) {
		t.Fatalf("err = %v, want ErrListNotFound", err)
	}
	if id, _ := st.ListID(); id != "00000000-0000-4000-8000-000000000000" {
		t.Errorf("unknown id must not be silently replaced, got %q", id)
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts, _ := setupServer(t, server.Config{})
	ctx := context.Background()
	s := NewSession(New(ts.URL), newState(t))
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.Add(ctx, model.Draft{Name: "Arroz", Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID, err := s.Resolve("1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := s.Price(ctx, itemID, 5.5, shoplist.PriceUnit); err != nil {
		t.Fatalf("price: %v", err)
	}
	if m := s.View(shoplist.Query{}); m.Total != 11 {
		t.Errorf("total = %v, want 11", m.Total)
	}

	if err := s.Edit(ctx, itemID, "Arroz integral", 2, ""); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if s.Items[0].Paid || s.Items[0].Price != 0 {
		t.Errorf("edit should reset price: %+v", s.Items[0])
	}

	if err := s.Remove(ctx, itemID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(s.Items) != 0 {
		t.Errorf("items = %+v", s.Items)
	}
	if _, err := s.Resolve("1"); !errors.Is(err, store.ErrItemNotFound) {
		t.Errorf("resolve err = %v, want ErrItemNotFound", err)
	}
}

func TestSessionAdopt(t *testing.T) {
	ts, _ := setupServer(t, server.Config{})
	ctx := context.Background()

	owner := NewSession(New(ts.URL), newState(t))
	owner.Load(ctx)
	owner.Add(ctx, model.Draft{Name: "Feijão", Quantity: 1})

	st := newState(t)
	guest := NewSession(New(ts.URL), st)
	guest.Load(ctx)
	original := guest.ListID

	if err := guest.Adopt(ctx, "00000000-0000-4000-8000-000000000000"); !errors.Is(err, store.ErrListNotFound) {
		t.Fatalf("adopt unknown err = %v, want ErrListNotFound", err)
	}
	if id, _ := st.ListID(); id != original {
		t.Errorf("failed adopt changed remembered id to %q", id)
	}

	if err := guest.Adopt(ctx, " "+owner.ListID+" "); err != nil {
		t.Fatalf("adopt: %v", err)
	}
	if guest.ListID != owner.ListID || len(guest.Items) != 1 || guest.Items[0].Name != "Feijão" {
		t.Errorf("guest = %+v", guest)
	}
	if id, _ := st.ListID(); id != owner.ListID {
		t.Errorf("remembered id = %q, want %q", id, owner.ListID)
	}

	guest.Add(ctx, model.Draft{Name: "Sal", Quantity: 1})
	owner.Refresh(ctx)
	if len(owner.Items) != 2 {
		t.Errorf("owner should see the guest's item, got %+v", owner.Items)
	}
}

func TestSessionImportExport(t *testing.T) {
	ctx := context.Background()
	s := NewSession(store.NewMemoryStore(), newState(t))
	s.Load(ctx)

	var buf bytes.Buffer
	var verr *shoplist.ValidationError
	if err := s.Export(&buf); !errors.As(err, &verr) {
		t.Errorf("export empty err = %v, want ValidationError", err)
	}

	if err := s.Import(ctx, strings.NewReader(`{"oops":true}`)); !errors.As(err, &verr) {
		t.Errorf("import object err = %v, want ValidationError", err)
	}
	if err := s.Import(ctx, strings.NewReader(`not json`)); !errors.As(err, &verr) {
		t.Errorf("import garbage err = %v, want ValidationError", err)
	}

	if err := s.Import(ctx, strings.NewReader(`[{"name":"Feijão","quantity":2,"paid":true,"price":16},{"name":""}]`)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(s.Items) != 2 || s.Items[1].Name != shoplist.DefaultItemName {
		t.Fatalf("items = %+v", s.Items)
	}

	buf.Reset()
	if err := s.Export(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	var exported []model.Item
	if err := json.Unmarshal(buf.Bytes(), &exported); err != nil {
		t.Fatalf("exported file is not a JSON array: %v", err)
	}
	if len(exported) != 2 || exported[0].Price != 16 {
		t.Errorf("exported = %+v", exported)
	}
}

func TestSessionReset(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	st := newState(t)
	s := NewSession(repo, st)
	s.Load(ctx)
	id := s.ListID

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.ListID != "" {
		t.Errorf("list id after reset = %q", s.ListID)
	}
	if held, _ := st.ListID(); held != "" {
		t.Errorf("remembered id after reset = %q", held)
	}
	if _, err := repo.Items(ctx, id); !errors.Is(err, store.ErrListNotFound) {
		t.Errorf("list should be gone, err = %v", err)
	}
	if err := s.Add(ctx, model.Draft{Name: "x", Quantity: 1}); !errors.Is(err, ErrNoList) {
		t.Errorf("add after reset err = %v, want ErrNoList", err)
	}
}
