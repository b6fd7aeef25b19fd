package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/shoplist/internal/logging"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/server"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
	"github.com/dukerupert/shoplist/internal/websocket"
)

func setupServer(t *testing.T, cfg server.Config) (*httptest.Server, *server.Server) {
	t.Helper()
	svc := shoplist.NewService(store.NewMemoryStore(), nil)
	srv := server.New(svc, cfg, logging.Discard())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, srv
}

func TestClientRepository(t *testing.T) {
	ts, _ := setupServer(t, server.Config{})
	c := New(ts.URL)
	ctx := context.Background()

	id, err := c.CreateList(ctx)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	items, err := c.AppendItem(ctx, id, model.Draft{Name: "Arroz", Quantity: 2})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Arroz" {
		t.Fatalf("items = %+v", items)
	}

	paid, price := true, 11.0
	items, err = c.UpdateItem(ctx, id, items[0].ItemID, model.Patch{Paid: &paid, Price: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !items[0].Paid || items[0].Price != 11 {
		t.Errorf("item = %+v", items[0])
	}

	items, err = c.ReplaceAll(ctx, id, []model.Item{{ItemID: "a", Name: "Feijão", Quantity: 1}})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(items) != 1 || items[0].ItemID != "a" {
		t.Errorf("items = %+v", items)
	}

	if _, err := c.DeleteItem(ctx, id, "missing"); !errors.Is(err, store.ErrItemNotFound) {
		t.Errorf("delete missing err = %v, want ErrItemNotFound", err)
	}
	if err := c.DeleteList(ctx, id); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	if _, err := c.Items(ctx, id); !errors.Is(err, store.ErrListNotFound) {
		t.Errorf("items err = %v, want ErrListNotFound", err)
	}
}

func TestClientValidationError(t *testing.T) {
	ts, _ := setupServer(t, server.Config{})
	c := New(ts.URL)
	ctx := context.Background()
	id, _ := c.CreateList(ctx)

	_, err := c.AppendItem(ctx, id, model.Draft{Name: "", Quantity: 1})
	var verr *shoplist.ValidationError
	if !errors.As(err, &verr) || verr.Message == "" {
		t.Errorf("err = %v, want ValidationError with message", err)
	}
}

func TestClientRateLimited(t *testing.T) {
	ts, _ := setupServer(t, server.Config{CreateLimit: 1, CreateWindow: time.Hour})
	c := New(ts.URL)
	ctx := context.Background()

	if _, err := c.CreateList(ctx); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := c.CreateList(ctx); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
}

func TestClientTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	c := New(ts.URL)
	_, err := c.Items(context.Background(), "x")
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Errorf("err = %v, want TransportError", err)
	}

	ts.Close()
	_, err = c.Items(context.Background(), "x")
	if !errors.As(err, &terr) {
		t.Errorf("closed server err = %v, want TransportError", err)
	}
}

func TestClientWatch(t *testing.T) {
	ts, srv := setupServer(t, server.Config{})
	c := New(ts.URL)
	writer := New(ts.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, _ := c.CreateList(ctx)

	got := make(chan websocket.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, id, func(m websocket.Message) error {
			got <- m
			cancel()
			return nil
		})
	}()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().ListClientCount(id) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := writer.AppendItem(context.Background(), id, model.Draft{Name: "Leite", Quantity: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	select {
	case m := <-got:
		if m.Type != shoplist.ActionItemCreated || m.ListID != id {
			t.Errorf("message = %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}
	if err := <-done; err != nil {
		t.Errorf("watch: %v", err)
	}
}
