package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/livefeed"
	"github.com/agrovida/hidrofresa/internal/notify"
	"github.com/agrovida/hidrofresa/internal/view"
)

// StreamHandler serves the live feed over server-sent events. Each open
// page holds exactly one stream; closing the page tears the subscription
// down.
type StreamHandler struct {
	hub    *livefeed.Hub
	notify *notify.Center
	logger *zap.Logger
}

// NewStreamHandler constructs the SSE adapter over the hub.
func NewStreamHandler(hub *livefeed.Hub, center *notify.Center, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{hub: hub, notify: center, logger: logger}
}

// Stream resolves the requested page against the principal's role and, when
// permitted, streams that page's topics until the client disconnects. A
// denied page never subscribes.
func (h *StreamHandler) Stream(c *gin.Context) {
	user := CurrentUser(c)

	res, err := view.Resolve(view.Page(c.Query("page")), user.Role, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, view.ErrUnknownPage):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown page"})
		case errors.Is(err, view.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "page not available"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to open stream"})
		}
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	events, cancel := h.hub.Subscribe(res.Topics, 32)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	// Replay the pending toast stack so a reconnecting client catches up.
	for _, n := range h.notify.Active(user.ID) {
		writeEvent(c, flusher, livefeed.Event{Type: "notification", ID: n.ID, Data: n})
	}
	flusher.Flush()

	h.logger.Debug("stream opened",
		zap.String("user", user.ID),
		zap.String("page", string(res.Page)),
		zap.Int("topics", len(res.Topics)))

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			writeEvent(c, flusher, ev)
		}
	}
}

func writeEvent(c *gin.Context, flusher http.Flusher, ev livefeed.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Type, payload)
	flusher.Flush()
}

// Dismiss removes one notification from the principal's stack.
func (h *StreamHandler) Dismiss(c *gin.Context) {
	h.notify.Dismiss(CurrentUser(c).ID, c.Param("id"))
	c.Status(http.StatusNoContent)
}

// Navigation lists the pages the principal's role may open, in menu order.
func (h *StreamHandler) Navigation(c *gin.Context) {
	user := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"pages": view.Pages(user.Role)})
}
