package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shoplist/internal/handler"
	"github.com/dukerupert/shoplist/internal/middleware"
	"github.com/dukerupert/shoplist/internal/shoplist"
	ws "github.com/dukerupert/shoplist/internal/websocket"
)

// Config holds the HTTP-level settings.
type Config struct {
	CORSOrigin string
	// CreateLimit caps list creations per client address per CreateWindow.
	CreateLimit  int
	CreateWindow time.Duration
}

type Server struct {
	svc         *shoplist.Service
	hub         *ws.Hub
	listH       *handler.ListHandler
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

// New wires the service to a fresh websocket hub so every mutation is
// broadcast to the list's watchers.
func New(svc *shoplist.Service, cfg Config, logger *slog.Logger) *Server {
	if cfg.CreateWindow <= 0 {
		cfg.CreateWindow = time.Minute
	}
	hub := ws.NewHub(logger.With("component", "websocket"))
	svc.SetNotifier(hub)

	return &Server{
		svc:         svc,
		hub:         hub,
		listH:       handler.NewListHandler(svc, hub, logger.With("component", "handler")),
		rateLimiter: middleware.NewRateLimiter(cfg.CreateLimit, cfg.CreateWindow),
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	mux.Handle("GET /api/list/new", middleware.RateLimit(s.rateLimiter)(http.HandlerFunc(s.listH.CreateList)))
	mux.HandleFunc("GET /api/list/{id}", s.listH.GetList)
	mux.HandleFunc("DELETE /api/list/{id}", s.listH.DeleteList)
	mux.HandleFunc("POST /api/list/{id}/item", s.listH.CreateItem)
	mux.HandleFunc("PUT /api/list/{id}/item/{itemId}", s.listH.UpdateItem)
	mux.HandleFunc("DELETE /api/list/{id}/item/{itemId}", s.listH.DeleteItem)
	mux.HandleFunc("POST /api/list/{id}/item/{itemId}/price", s.listH.ConfirmPrice)
	mux.HandleFunc("POST /api/list/{id}/sync", s.listH.Sync)
	mux.HandleFunc("GET /api/list/{id}/view", s.listH.View)
	mux.HandleFunc("GET /api/list/{id}/export", s.listH.Export)
	mux.HandleFunc("GET /api/list/{id}/ws", s.listH.Watch)

	var h http.Handler = mux
	h = middleware.CORS(s.cfg.CORSOrigin)(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}
