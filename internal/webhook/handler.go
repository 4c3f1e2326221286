// Package webhook receives Zoom's event stream. The handler
// authenticates, acknowledges inside Zoom's delivery deadline, and
// hands recognized events to the lifecycle manager asynchronously.
package webhook

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/observ"
	"github.com/handwave-community/handwave/internal/zoom"
)

// processTimeout bounds one event's trip through the manager: a few
// store queries plus a chat edit per bound message.
const processTimeout = 30 * time.Second

// EventSink is the slice of the lifecycle manager the gateway drives.
type EventSink interface {
	HandleEvent(ctx context.Context, ev *zoom.Event) error
}

type Handler struct {
	sink   EventSink
	dedup  *Deduper
	secret string
	logger *zap.Logger
}

func NewHandler(sink EventSink, dedup *Deduper, secret string, logger *zap.Logger) *Handler {
	return &Handler{sink: sink, dedup: dedup, secret: secret, logger: logger}
}

// Register mounts the webhook route on the engine.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/webhook", h.Receive)
}

// Receive answers every authenticated delivery with 200 immediately;
// Zoom gives us only a few seconds before it retries. Recognized
// events are processed on their own goroutine.
func (h *Handler) Receive(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if subtle.ConstantTimeCompare([]byte(header), []byte(h.secret)) != 1 {
		observ.WebhookDropped.WithLabelValues("auth").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid authorization"})
		return
	}

	var ev zoom.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		observ.WebhookDropped.WithLabelValues("malformed").Inc()
		c.Status(http.StatusOK)
		return
	}

	switch ev.Kind {
	case zoom.EventParticipantJoined, zoom.EventParticipantLeft, zoom.EventMeetingEnded:
	default:
		observ.WebhookDropped.WithLabelValues("unknown_event").Inc()
		c.Status(http.StatusOK)
		return
	}

	// Breakout-room container events carry no object id.
	if _, ok := ev.MeetingID(); !ok {
		observ.WebhookDropped.WithLabelValues("no_object_id").Inc()
		c.Status(http.StatusOK)
		return
	}

	if h.dedup.Seen(c.Request.Context(), &ev) {
		observ.WebhookDropped.WithLabelValues("duplicate").Inc()
		c.Status(http.StatusOK)
		return
	}

	observ.WebhookEvents.WithLabelValues(ev.Kind).Inc()
	go h.process(&ev)

	c.Status(http.StatusOK)
}

func (h *Handler) process(ev *zoom.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	logger := h.logger.With(
		zap.String("dispatch_id", uuid.NewString()),
		zap.String("event", ev.Kind),
		zap.String("meeting_id", ev.Payload.Object.ID),
	)

	if err := h.sink.HandleEvent(ctx, ev); err != nil {
		logger.Error("webhook event processing failed", zap.Error(err))
		return
	}
	logger.Debug("webhook event processed")
}
