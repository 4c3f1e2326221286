package meeting

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/chat"
	"github.com/handwave-community/handwave/internal/models"
)

// HandleReaction processes a reaction on any message. Reactions from
// bots, on unbound messages, or with unrecognized emoji are ignored.
func (m *Manager) HandleReaction(ctx context.Context, ev chat.ReactionEvent) error {
	if ev.UserBot {
		return nil
	}
	if ev.Emoji != m.cfg.CloseEmoji && ev.Emoji != m.cfg.RepostEmoji {
		return nil
	}

	binding, err := m.messages.Get(ctx, ev.MessageID)
	if err != nil {
		return err
	}
	if binding == nil {
		return nil
	}

	switch ev.Emoji {
	case m.cfg.CloseEmoji:
		return m.End(ctx, binding.MeetingID, endedMarker)
	case m.cfg.RepostEmoji:
		return m.repost(ctx, binding)
	}
	return nil
}

// repost moves a meeting message to the bottom of its channel: the old
// message is deleted (or neutralized when deletion fails), a fresh
// rendering is posted, and the store binding is swapped atomically.
func (m *Manager) repost(ctx context.Context, binding *models.MeetingMessage) error {
	mt, err := m.meetings.Get(ctx, binding.MeetingID)
	if err != nil {
		return err
	}
	if mt == nil {
		// Binding outlived its meeting somehow; drop the reaction.
		return nil
	}

	parts, err := m.participants.ListByMeeting(ctx, mt.ID)
	if err != nil {
		return err
	}

	if err := m.surface.Delete(ctx, binding.ChannelID, binding.MessageID); err != nil {
		m.logger.Warn("failed to delete reposted message, neutralizing instead",
			zap.String("message_id", binding.MessageID), zap.Error(err))
		if editErr := m.surface.Edit(ctx, binding.ChannelID, binding.MessageID,
			chat.Message{Content: movedMarker}); editErr != nil {
			m.logger.Warn("failed to neutralize reposted message",
				zap.String("message_id", binding.MessageID), zap.Error(editErr))
		}
	}

	newID, err := m.surface.Send(ctx, binding.ChannelID, m.render(mt, parts))
	if err != nil {
		return fmt.Errorf("repost meeting message: %w", err)
	}

	if err := m.messages.Swap(ctx, binding.MessageID, &models.MeetingMessage{
		MessageID: newID,
		ChannelID: binding.ChannelID,
		MeetingID: mt.ID,
	}); err != nil {
		return err
	}

	m.scheduleRepostReaction(binding.ChannelID, newID)
	return nil
}
