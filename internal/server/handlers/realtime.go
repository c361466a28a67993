package handlers

import (
	"net/http"

	"github.com/agentstation/utc"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	ws "github.com/ellisd4/tagsync/internal/server/websocket"
)

// HandleWebSocket handles GET /api/v1/events. Clients receive run.completed,
// run.failed and tag.changed messages.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(uuid.NewString(), h.wsHub, conn)
	// queued before registration; the hub closes the send channel on shutdown
	client.Send(ws.Message{
		Type:      ws.TypeClientConnected,
		Timestamp: utc.Now(),
		Data:      map[string]any{"status": h.client.Status()},
	})
	if !h.wsHub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
