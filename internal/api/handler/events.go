package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/invoicestash/invoicestash/internal/notify"
)

// EventsHandler streams orchestration events to the UI shell.
type EventsHandler struct {
	hub *notify.Hub
}

// NewEventsHandler creates a new events handler.
// Parameters:
//   - hub: event hub the orchestrator publishes to.
// Returns:
//   - *EventsHandler: initialized handler.
func NewEventsHandler(hub *notify.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/events as server-sent events. The stream stays
// open until the client disconnects; code requests, progress and errors all
// arrive here.
// Parameters:
//   - c: Gin request context.
// Returns: none (streams SSE frames).
func (h *EventsHandler) Stream(c *gin.Context) {
	events, cancel := h.hub.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
