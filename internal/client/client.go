package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/shoplist"
	"github.com/dukerupert/shoplist/internal/store"
	"github.com/dukerupert/shoplist/internal/websocket"
)

// ErrRateLimited is returned when the server refuses to create more lists
// for this client for now.
var ErrRateLimited = errors.New("rate limited by server")

// TransportError means the server could not be reached or answered with
// something other than the API's JSON.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Client is a store.Repository backed by the shoplist HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateList(ctx context.Context) (string, error) {
	var resp struct {
		ListID string `json:"listId"`
	}
	if err := c.do(ctx, "GET", "/api/list/new", nil, &resp); err != nil {
		return "", err
	}
	if resp.ListID == "" {
		return "", &TransportError{Op: "create list", Err: errors.New("response has no listId")}
	}
	return resp.ListID, nil
}

func (c *Client) Items(ctx context.Context, listID string) ([]model.Item, error) {
	return c.items(ctx, "GET", listPath(listID), nil)
}

func (c *Client) AppendItem(ctx context.Context, listID string, draft model.Draft) ([]model.Item, error) {
	return c.items(ctx, "POST", listPath(listID)+"/item", draft)
}

func (c *Client) UpdateItem(ctx context.Context, listID, itemID string, patch model.Patch) ([]model.Item, error) {
	return c.items(ctx, "PUT", itemPath(listID, itemID), patch)
}

func (c *Client) DeleteItem(ctx context.Context, listID, itemID string) ([]model.Item, error) {
	return c.items(ctx, "DELETE", itemPath(listID, itemID), nil)
}

func (c *Client) ReplaceAll(ctx context.Context, listID string, items []model.Item) ([]model.Item, error) {
	return c.items(ctx, "POST", listPath(listID)+"/sync", model.Clone(items))
}

func (c *Client) DeleteList(ctx context.Context, listID string) error {
	return c.do(ctx, "DELETE", listPath(listID), nil, nil)
}

// Watch streams change notifications for listID until ctx is done.
func (c *Client) Watch(ctx context.Context, listID string, fn func(websocket.Message) error) error {
	u, err := url.Parse(c.baseURL + listPath(listID) + "/ws")
	if err != nil {
		return fmt.Errorf("watch url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return websocket.Watch(ctx, u.String(), fn)
}

func (c *Client) items(ctx context.Context, method, path string, body any) ([]model.Item, error) {
	var items []model.Item
	if err := c.do(ctx, method, path, body, &items); err != nil {
		return nil, err
	}
	return model.Clone(items), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// decodeError maps an API error response back onto the errors the local
// store and service return, so callers handle both the same way.
func decodeError(op string, resp *http.Response) error {
	var body errorResponse
	json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	switch {
	case resp.StatusCode == http.StatusNotFound && body.Code == "item_not_found":
		return store.ErrItemNotFound
	case resp.StatusCode == http.StatusNotFound && body.Code == "list_not_found":
		return store.ErrListNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return &shoplist.ValidationError{Message: body.Error}
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	}
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &TransportError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, msg)}
}

func listPath(listID string) string {
	return "/api/list/" + url.PathEscape(listID)
}

func itemPath(listID, itemID string) string {
	return listPath(listID) + "/item/" + url.PathEscape(itemID)
}
