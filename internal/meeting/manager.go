// Package meeting implements the meeting lifecycle manager: the state
// machine absent → pending → active → closed, fan-out of renderings to
// every bound chat message, and reconciliation of Zoom webhook events.
package meeting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/chat"
	"github.com/handwave-community/handwave/internal/models"
	"github.com/handwave-community/handwave/internal/repository"
	"github.com/handwave-community/handwave/internal/zoom"
)

// Provider is the slice of the Zoom client the manager consumes.
type Provider interface {
	CreateMeeting(ctx context.Context, owner, topic string) (*zoom.Meeting, error)
	GetMeeting(ctx context.Context, meetingID int64) (*zoom.Meeting, error)
}

// Operator is a chat user allowed to run meeting commands, mapped to
// the Zoom identity their meetings are created under.
type Operator struct {
	ChatID    string
	ZoomOwner string
	Email     string
}

// Config tunes the manager. Zero values are filled by the caller from
// the application config defaults.
type Config struct {
	RepostDelay time.Duration
	MaxListed   int
	CloseEmoji  string
	RepostEmoji string
	StaleAfter  time.Duration
	Operators   []Operator
}

// Invocation is one operator command. MeetingID is 0 when the command
// carried no explicit id.
type Invocation struct {
	ChannelID string
	UserID    string
	MeetingID int64
}

// Manager coordinates the store, the provider, and the chat surface.
// It exclusively owns transitions on meetings and their messages.
type Manager struct {
	meetings     repository.MeetingRepository
	messages     repository.MessageRepository
	participants repository.ParticipantRepository
	provider     Provider
	surface      chat.Surface
	logger       *zap.Logger
	cfg          Config

	operators map[string]Operator // keyed by chat user id
	byEmail   map[string]string   // operator email -> chat user id
}

func NewManager(
	meetings repository.MeetingRepository,
	messages repository.MessageRepository,
	participants repository.ParticipantRepository,
	provider Provider,
	surface chat.Surface,
	cfg Config,
	logger *zap.Logger,
) *Manager {
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = 24 * time.Hour
	}
	m := &Manager{
		meetings:     meetings,
		messages:     messages,
		participants: participants,
		provider:     provider,
		surface:      surface,
		logger:       logger,
		cfg:          cfg,
		operators:    make(map[string]Operator, len(cfg.Operators)),
		byEmail:      make(map[string]string, len(cfg.Operators)),
	}
	for _, op := range cfg.Operators {
		m.operators[op.ChatID] = op
		if op.Email != "" {
			m.byEmail[op.Email] = op.ChatID
		}
	}
	return m
}

func (m *Manager) operatorFor(userID string) (Operator, error) {
	op, ok := m.operators[userID]
	if !ok {
		return Operator{}, ErrNotAuthorized
	}
	return op, nil
}

// obtain resolves a meeting for create/setup. With an explicit id it
// attaches: the local row wins, otherwise the provider is asked and a
// fresh unsaved model is built. With id 0 a new meeting is created at
// the provider. stored reports whether the row already exists locally.
func (m *Manager) obtain(ctx context.Context, op Operator, meetingID int64) (mt *models.Meeting, stored bool, err error) {
	if meetingID != 0 {
		existing, err := m.meetings.Get(ctx, meetingID)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, true, nil
		}
		zm, err := m.provider.GetMeeting(ctx, meetingID)
		if err != nil {
			return nil, false, err
		}
		return fromZoom(zm, op.ZoomOwner), false, nil
	}

	zm, err := m.provider.CreateMeeting(ctx, op.ZoomOwner, "")
	if err != nil {
		return nil, false, err
	}
	return fromZoom(zm, op.ZoomOwner), false, nil
}

func fromZoom(zm *zoom.Meeting, owner string) *models.Meeting {
	return &models.Meeting{
		ID:        zm.ID,
		Owner:     owner,
		JoinURL:   zm.JoinURL,
		Passcode:  zm.Passcode,
		Topic:     zm.Topic,
		HostID:    zm.HostID,
		CreatedAt: time.Now().UTC(),
	}
}

// Create attaches or provider-creates a meeting and posts the
// full-detail message immediately. No state is persisted when the
// provider call fails.
func (m *Manager) Create(ctx context.Context, inv Invocation) error {
	op, err := m.operatorFor(inv.UserID)
	if err != nil {
		return err
	}

	mt, stored, err := m.obtain(ctx, op, inv.MeetingID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	wasPending := mt.Pending()
	if wasPending {
		mt.SetupAt = &now
	}

	parts, err := m.currentParticipants(ctx, mt, stored)
	if err != nil {
		return err
	}

	msgID, err := m.surface.Send(ctx, inv.ChannelID, m.render(mt, parts))
	if err != nil {
		return fmt.Errorf("post meeting message: %w", err)
	}
	binding := &models.MeetingMessage{MessageID: msgID, ChannelID: inv.ChannelID, MeetingID: mt.ID}

	if stored {
		if wasPending {
			if err := m.meetings.MarkSetUp(ctx, mt.ID, now); err != nil {
				return err
			}
		}
		if err := m.messages.Create(ctx, binding); err != nil {
			return err
		}
		if wasPending {
			// Creating over a stored pending meeting is also its
			// reveal: any placeholder in another channel updates too.
			if _, err := m.propagate(ctx, mt); err != nil {
				return err
			}
		}
	} else {
		if err := m.meetings.CreateWithMessage(ctx, mt, binding); err != nil {
			// The chat message exists but the store rejected the rows;
			// take the orphan down so users don't see a dead card.
			if delErr := m.surface.Delete(ctx, inv.ChannelID, msgID); delErr != nil {
				m.logger.Warn("failed to remove orphan meeting message",
					zap.String("message_id", msgID), zap.Error(delErr))
			}
			return err
		}
	}

	m.scheduleRepostReaction(inv.ChannelID, msgID)
	return nil
}

// Setup attaches or provider-creates a meeting, posts a message in the
// invoking channel, and DMs the join details to the operator. A fresh
// meeting stays in setup mode: the posted message is a placeholder and
// the details stay out of public view until start.
func (m *Manager) Setup(ctx context.Context, inv Invocation) error {
	op, err := m.operatorFor(inv.UserID)
	if err != nil {
		return err
	}

	mt, stored, err := m.obtain(ctx, op, inv.MeetingID)
	if err != nil {
		return err
	}

	parts, err := m.currentParticipants(ctx, mt, stored)
	if err != nil {
		return err
	}

	// render respects the current state, so a cross-channel setup on an
	// already revealed meeting posts details, not a placeholder.
	msgID, err := m.surface.Send(ctx, inv.ChannelID, m.render(mt, parts))
	if err != nil {
		return fmt.Errorf("post meeting message: %w", err)
	}
	binding := &models.MeetingMessage{MessageID: msgID, ChannelID: inv.ChannelID, MeetingID: mt.ID}

	if stored {
		if err := m.messages.Create(ctx, binding); err != nil {
			return err
		}
	} else {
		if err := m.meetings.CreateWithMessage(ctx, mt, binding); err != nil {
			if delErr := m.surface.Delete(ctx, inv.ChannelID, msgID); delErr != nil {
				m.logger.Warn("failed to remove orphan meeting message",
					zap.String("message_id", msgID), zap.Error(delErr))
			}
			return err
		}
	}

	if !mt.Pending() {
		m.scheduleRepostReaction(inv.ChannelID, msgID)
	}

	dm := chat.Message{Content: fmt.Sprintf(
		"Your meeting is ready. 🤫 Details stay private until you run start.\n%s\nMeeting ID: %d · Passcode: %s",
		mt.JoinURL, mt.ID, mt.Passcode)}
	if _, err := m.surface.SendDirect(ctx, inv.UserID, dm); err != nil {
		m.logger.Warn("failed to DM meeting details",
			zap.String("user_id", inv.UserID), zap.Error(err))
	}
	return nil
}

// Start reveals a pending meeting: stamps setup_at and edits every
// bound message to the full-detail rendering. Without an explicit id
// it targets the operator's latest pending meeting.
func (m *Manager) Start(ctx context.Context, inv Invocation) error {
	op, err := m.operatorFor(inv.UserID)
	if err != nil {
		return err
	}

	var mt *models.Meeting
	if inv.MeetingID != 0 {
		mt, err = m.meetings.Get(ctx, inv.MeetingID)
		if err != nil {
			return err
		}
		if mt == nil {
			return zoom.ErrNotFound
		}
	} else {
		mt, err = m.meetings.LatestPendingForOwner(ctx, op.ZoomOwner)
		if err != nil {
			return err
		}
		if mt == nil {
			return ErrNoPending
		}
	}

	if mt.Pending() {
		now := time.Now().UTC()
		if err := m.meetings.MarkSetUp(ctx, mt.ID, now); err != nil {
			return err
		}
		mt.SetupAt = &now
	}

	bound, err := m.propagate(ctx, mt)
	if err != nil {
		return err
	}
	for _, b := range bound {
		m.scheduleRepostReaction(b.ChannelID, b.MessageID)
	}
	return nil
}

// Stop closes a meeting everywhere. Idempotent: stopping an unknown or
// already closed meeting succeeds as a no-op.
func (m *Manager) Stop(ctx context.Context, inv Invocation) error {
	if _, err := m.operatorFor(inv.UserID); err != nil {
		return err
	}
	if inv.MeetingID == 0 {
		return ErrMeetingIDRequired
	}
	return m.End(ctx, inv.MeetingID, endedMarker)
}

// End transitions a meeting to closed: every bound message becomes the
// ended marker with embeds and reactions cleared, then the row is
// deleted and messages and participants cascade with it.
func (m *Manager) End(ctx context.Context, meetingID int64, marker string) error {
	exists, err := m.meetings.Exists(ctx, meetingID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	bound, err := m.messages.ListByMeeting(ctx, meetingID)
	if err != nil {
		return err
	}
	for _, b := range bound {
		if err := m.surface.Edit(ctx, b.ChannelID, b.MessageID, chat.Message{Content: marker}); err != nil {
			m.logger.Warn("failed to edit ended meeting message",
				zap.Int64("meeting_id", meetingID),
				zap.String("message_id", b.MessageID),
				zap.Error(err))
		}
		if err := m.surface.ClearReactions(ctx, b.ChannelID, b.MessageID); err != nil {
			m.logger.Warn("failed to clear reactions",
				zap.String("message_id", b.MessageID), zap.Error(err))
		}
	}

	return m.meetings.End(ctx, meetingID)
}

// propagate re-renders every message bound to the meeting. A failed
// edit is logged and skipped; the remaining messages still update.
func (m *Manager) propagate(ctx context.Context, mt *models.Meeting) ([]models.MeetingMessage, error) {
	parts, err := m.participants.ListByMeeting(ctx, mt.ID)
	if err != nil {
		return nil, err
	}
	bound, err := m.messages.ListByMeeting(ctx, mt.ID)
	if err != nil {
		return nil, err
	}

	msg := m.render(mt, parts)
	for _, b := range bound {
		if err := m.surface.Edit(ctx, b.ChannelID, b.MessageID, msg); err != nil {
			m.logger.Warn("failed to propagate meeting message edit",
				zap.Int64("meeting_id", mt.ID),
				zap.String("message_id", b.MessageID),
				zap.Error(err))
		}
	}
	return bound, nil
}

func (m *Manager) currentParticipants(ctx context.Context, mt *models.Meeting, stored bool) ([]models.Participant, error) {
	if !stored {
		return nil, nil
	}
	return m.participants.ListByMeeting(ctx, mt.ID)
}

// scheduleRepostReaction adds the repost control after the configured
// delay without blocking the transition. Fire and forget: if the bot
// restarts before the timer fires, the reaction simply never appears.
func (m *Manager) scheduleRepostReaction(channelID, messageID string) {
	go func() {
		time.Sleep(m.cfg.RepostDelay)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.surface.React(ctx, channelID, messageID, m.cfg.RepostEmoji); err != nil {
			m.logger.Warn("failed to add repost reaction",
				zap.String("message_id", messageID), zap.Error(err))
		}
	}()
}

// SweepStale ends meetings that never left setup mode. Run daily.
func (m *Manager) SweepStale(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-m.cfg.StaleAfter)
	stale, err := m.meetings.ListStalePending(ctx, cutoff)
	if err != nil {
		m.logger.Error("stale sweep query failed", zap.Error(err))
		return
	}
	for _, mt := range stale {
		if err := m.End(ctx, mt.ID, expiredMarker); err != nil {
			m.logger.Error("failed to end stale meeting",
				zap.Int64("meeting_id", mt.ID), zap.Error(err))
		}
	}
	if len(stale) > 0 {
		m.logger.Info("swept stale pending meetings", zap.Int("count", len(stale)))
	}
}
