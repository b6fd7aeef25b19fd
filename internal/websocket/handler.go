package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	ws "github.com/coder/websocket"
)

// Serve upgrades the request and streams changes of listID until the
// connection closes. The caller has already checked that the list exists.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, listID string) {
	conn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true, // possession of the list ID is the only credential
	})
	if err != nil {
		h.logger.Error("websocket accept", "list_id", listID, "error", err)
		return
	}
	defer conn.CloseNow()

	client := NewClient(h, conn, listID)
	client.Run(r.Context())
}

// Watch dials a list's change stream and calls fn for every message. It
// returns when ctx is done, the server closes the stream, or fn fails.
func Watch(ctx context.Context, url string, fn func(Message) error) error {
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.CloseNow()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || ws.CloseStatus(err) != -1 {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}
