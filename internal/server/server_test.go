package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/shoplist/internal/logging"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
)

func setupServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	svc := shoplist.NewService(store.NewMemoryStore(), nil)
	return New(svc, cfg, logging.Discard())
}

func TestHealth(t *testing.T) {
	srv := setupServer(t, Config{})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestCreateListRateLimited(t *testing.T) {
	srv := setupServer(t, Config{CreateLimit: 2, CreateWindow: time.Hour})
	router := srv.Router()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/list/new", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/list/new", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// Only list creation is limited.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/list/00000000-0000-4000-8000-000000000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRouterAppliesCORS(t *testing.T) {
	srv := setupServer(t, Config{CORSOrigin: "https://lista.example"})
	req := httptest.NewRequest("OPTIONS", "/api/list/abc/item", nil)
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://lista.example" {
		t.Errorf("allow origin = %q", got)
	}
}
