package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
	"github.com/dukerupert/shoplist/internal/websocket"
)

const maxBodyBytes = 1 << 20

// Error codes carried next to the message in error bodies.
const (
	CodeInvalidInput = "invalid_input"
	CodeListNotFound = "list_not_found"
	CodeItemNotFound = "item_not_found"
	CodeInternal     = "internal"
)

type ListHandler struct {
	svc    *shoplist.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewListHandler(svc *shoplist.Service, hub *websocket.Hub, logger *slog.Logger) *ListHandler {
	return &ListHandler{svc: svc, hub: hub, logger: logger}
}

type itemRequest struct {
	Name        string `json:"name"`
	Quantity    *int   `json:"quantity"`
	Observation string `json:"observation"`
}

type priceRequest struct {
	Amount *float64 `json:"amount"`
	Mode   string   `json:"mode"`
}

func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.CreateList(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"listId": id})
}

func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Items(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ListHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	items, err := h.svc.AddItem(r.Context(), r.PathValue("id"), model.Draft{
		Name:        req.Name,
		Quantity:    quantity,
		Observation: req.Observation,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, items)
}

func (h *ListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch model.Patch
	if !decodeBody(w, r, &patch) {
		return
	}

	items, err := h.svc.UpdateItem(r.Context(), r.PathValue("id"), r.PathValue("itemId"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.DeleteItem(r.Context(), r.PathValue("id"), r.PathValue("itemId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ListHandler) ConfirmPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "amount is required")
		return
	}
	mode, err := shoplist.ParsePriceMode(req.Mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.svc.ConfirmPrice(r.Context(), r.PathValue("id"), r.PathValue("itemId"), *req.Amount, mode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ListHandler) Sync(w http.ResponseWriter, r *http.Request) {
	var raw any
	if !decodeBody(w, r, &raw) {
		return
	}

	items, err := h.svc.Import(r.Context(), r.PathValue("id"), raw)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteList(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "list deleted"})
}

func (h *ListHandler) View(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := shoplist.ParseFilter(q.Get("filter"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	sort, err := shoplist.ParseSort(q.Get("sort"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	m, err := h.svc.View(r.Context(), r.PathValue("id"), shoplist.Query{
		Search: q.Get("q"),
		Filter: filter,
		Sort:   sort,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *ListHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	items, err := h.svc.Items(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shoplist-%s.json"`, id))
	writeJSON(w, http.StatusOK, items)
}

func (h *ListHandler) Watch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := h.svc.Items(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.hub.Serve(w, r, id)
}

func (h *ListHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *shoplist.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, CodeInvalidInput, verr.Error())
	case errors.Is(err, store.ErrListNotFound):
		writeError(w, http.StatusNotFound, CodeListNotFound, "list not found")
	case errors.Is(err, store.ErrItemNotFound):
		writeError(w, http.StatusNotFound, CodeItemNotFound, "item not found")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidInput, "invalid JSON")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// writeJSON encodes v before committing the status, so a value that cannot
// be encoded becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "status", status, "error", err)
		body = []byte(`{"error":"internal error","code":"` + CodeInternal + `"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
