package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/zoom"
)

// dedupTTL bounds how long a delivery key is remembered. Zoom retries
// within minutes, so an hour is ample.
const dedupTTL = time.Hour

// Deduper suppresses redelivered webhook events. Handlers are
// idempotent regardless, so this is an optimization, not a correctness
// requirement: when redis is unavailable every event passes through.
type Deduper struct {
	client *redis.Client
	logger *zap.Logger
}

func NewDeduper(client *redis.Client, logger *zap.Logger) *Deduper {
	return &Deduper{client: client, logger: logger}
}

// Seen records the delivery and reports whether it was already seen.
func (d *Deduper) Seen(ctx context.Context, ev *zoom.Event) bool {
	if d == nil || d.client == nil {
		return false
	}

	key := fmt.Sprintf("webhook:%s:%s:%s:%d",
		ev.Kind,
		ev.Payload.Object.ID,
		ev.Payload.Object.Participant.UserName,
		ev.Timestamp,
	)

	fresh, err := d.client.SetNX(ctx, key, 1, dedupTTL).Result()
	if err != nil {
		d.logger.Warn("webhook dedup unavailable", zap.Error(err))
		return false
	}
	return !fresh
}
