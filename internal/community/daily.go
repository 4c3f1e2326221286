// Package community posts the scheduled community-wide messages.
package community

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/chat"
)

// Practice prompts rotated by day of year.
var prompts = []string{
	"Fingerspell the longest word you learned this week. 🤟",
	"Sign today's weather to someone — no voicing!",
	"Teach a friend three signs you use every day.",
	"Describe your breakfast using only classifiers.",
	"Find a signing partner and hold a one-minute conversation.",
	"Practice your numbers: sign your phone number backwards.",
	"Pick a song chorus and translate it into sign.",
}

// Poster sends the daily practice prompt to the community channel.
type Poster struct {
	surface   chat.Surface
	channelID string
	logger    *zap.Logger
}

func NewPoster(surface chat.Surface, channelID string, logger *zap.Logger) *Poster {
	return &Poster{surface: surface, channelID: channelID, logger: logger}
}

// PostDaily is the scheduler task. Errors are logged, never fatal.
func (p *Poster) PostDaily(ctx context.Context) {
	if p.channelID == "" {
		return
	}

	prompt := prompts[time.Now().YearDay()%len(prompts)]
	msg := chat.Message{Content: fmt.Sprintf("☀️ Daily practice: %s", prompt)}

	if _, err := p.surface.Send(ctx, p.channelID, msg); err != nil {
		p.logger.Error("failed to post daily prompt", zap.Error(err))
		return
	}
	p.logger.Info("posted daily prompt")
}
