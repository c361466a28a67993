package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/utc"

	"github.com/ellisd4/tagsync/internal/server/response"
)

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, map[string]any{
		"status":            "healthy",
		"service":           "tagsync",
		"uptime":            utc.Now().Sub(h.startTime).Truncate(time.Second).String(),
		"websocket_clients": h.wsHub.ClientCount(),
	})
}
