// Package bot routes inbound chat events: prefix commands go to the
// lifecycle manager's operations, reactions to its reaction handler.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/chat"
	"github.com/handwave-community/handwave/internal/meeting"
	"github.com/handwave-community/handwave/internal/observ"
	"github.com/handwave-community/handwave/internal/zoom"
)

// commandTimeout bounds one command: a provider call, a couple of
// store queries, and a few chat calls.
const commandTimeout = 30 * time.Second

// The command set is closed; anything else under the prefix gets a hint.
const (
	cmdCreate = "create"
	cmdSetup  = "setup"
	cmdStart  = "start"
	cmdStop   = "stop"
)

type Dispatcher struct {
	manager *meeting.Manager
	surface chat.Surface
	prefix  string
	logger  *zap.Logger
}

func NewDispatcher(manager *meeting.Manager, surface chat.Surface, prefix string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{manager: manager, surface: surface, prefix: prefix, logger: logger}
}

// Run consumes gateway events until the stream closes.
func (d *Dispatcher) Run(ctx context.Context, events <-chan chat.InboundEvent) {
	for ev := range events {
		switch {
		case ev.Message != nil:
			d.handleMessage(ctx, ev.Message)
		case ev.Reaction != nil:
			d.handleReaction(ctx, ev.Reaction)
		}
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, ev *chat.MessageEvent) {
	if ev.AuthorBot {
		return
	}
	content := strings.TrimSpace(ev.Content)
	if !strings.HasPrefix(content, d.prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(content, d.prefix))
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])

	inv := meeting.Invocation{ChannelID: ev.ChannelID, UserID: ev.AuthorID}
	if len(fields) > 1 {
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			d.reply(ctx, ev.ChannelID, "⚠️ That doesn't look like a meeting id.")
			return
		}
		inv.MeetingID = id
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var err error
	switch command {
	case cmdCreate:
		err = d.manager.Create(cmdCtx, inv)
	case cmdSetup:
		err = d.manager.Setup(cmdCtx, inv)
	case cmdStart:
		err = d.manager.Start(cmdCtx, inv)
	case cmdStop:
		err = d.manager.Stop(cmdCtx, inv)
	default:
		d.reply(ctx, ev.ChannelID, "⚠️ Unknown command. Try create, setup, start, or stop.")
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		d.logger.Warn("command failed",
			zap.String("command", command),
			zap.String("user_id", ev.AuthorID),
			zap.Error(err))
		d.reply(ctx, ev.ChannelID, userMessage(command, err))
	}
	observ.Commands.WithLabelValues(command, outcome).Inc()
}

func (d *Dispatcher) handleReaction(ctx context.Context, ev *chat.ReactionEvent) {
	rctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	if err := d.manager.HandleReaction(rctx, *ev); err != nil {
		d.logger.Warn("reaction handling failed",
			zap.String("message_id", ev.MessageID),
			zap.String("emoji", ev.Emoji),
			zap.Error(err))
	}
}

func (d *Dispatcher) reply(ctx context.Context, channelID, content string) {
	if _, err := d.surface.Send(ctx, channelID, chat.Message{Content: content}); err != nil {
		d.logger.Warn("failed to send reply", zap.Error(err))
	}
}

// userMessage converts a command error into the single-sentence reply
// users see. Provider and storage details stay in the logs.
func userMessage(command string, err error) string {
	var provErr *zoom.ProviderError
	switch {
	case errors.Is(err, meeting.ErrNotAuthorized):
		return "⚠️ Only authorized users can manage meetings."
	case errors.Is(err, meeting.ErrNoPending):
		return "⚠️ You have no meeting waiting to start — run setup first."
	case errors.Is(err, meeting.ErrMeetingIDRequired):
		return "⚠️ Tell me which meeting: stop <meeting id>."
	case errors.Is(err, zoom.ErrNotFound):
		return "⚠️ No such meeting — create a new one instead."
	case errors.As(err, &provErr):
		return "🚨 Could not create the meeting — Zoom is not cooperating."
	default:
		return "🚨 Something went wrong running " + command + "."
	}
}
