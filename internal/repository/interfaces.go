package repository

import (
	"context"
	"time"

	"github.com/handwave-community/handwave/internal/models"
)

// The lifecycle manager exclusively owns transitions on meetings and
// meeting messages; participants are written only from webhook events.
// Every method takes a context because every method hits the database.

// MeetingRepository defines the contract for meeting rows.
type MeetingRepository interface {
	// Create inserts a meeting. SetupAt nil means setup mode.
	Create(ctx context.Context, m *models.Meeting) error

	// CreateWithMessage inserts a meeting and its first bound message
	// in one transaction, so a meeting is never visible without the
	// message that announces it.
	CreateWithMessage(ctx context.Context, m *models.Meeting, msg *models.MeetingMessage) error

	// Get returns a meeting by id. Returns nil, nil if not found.
	Get(ctx context.Context, meetingID int64) (*models.Meeting, error)

	// Exists reports whether the meeting is known locally.
	Exists(ctx context.Context, meetingID int64) (bool, error)

	// End deletes the meeting; bound messages and participants cascade.
	// Deleting an absent meeting is a no-op.
	End(ctx context.Context, meetingID int64) error

	// SetHostID updates the cached host from a webhook event.
	SetHostID(ctx context.Context, meetingID int64, hostID string) error

	// MarkSetUp stamps setup_at, moving the meeting out of setup mode.
	MarkSetUp(ctx context.Context, meetingID int64, at time.Time) error

	// LatestPendingForOwner returns the owner's newest meeting with
	// setup_at still null. Returns nil, nil when there is none.
	LatestPendingForOwner(ctx context.Context, owner string) (*models.Meeting, error)

	// ListStalePending returns pending meetings created before the cutoff.
	ListStalePending(ctx context.Context, cutoff time.Time) ([]models.Meeting, error)
}

// MessageRepository defines the contract for meeting-message bindings.
type MessageRepository interface {
	// Create binds a posted chat message to a meeting.
	Create(ctx context.Context, msg *models.MeetingMessage) error

	// Get returns a binding by message id. Returns nil, nil if not found.
	Get(ctx context.Context, messageID string) (*models.MeetingMessage, error)

	// ListByMeeting returns every message bound to the meeting.
	ListByMeeting(ctx context.Context, meetingID int64) ([]models.MeetingMessage, error)

	// Remove unbinds a single message. No-op if absent.
	Remove(ctx context.Context, messageID string) error

	// Swap atomically replaces oldID's binding with the new one; used
	// by repost so there is no window with zero or two live bindings.
	Swap(ctx context.Context, oldID string, msg *models.MeetingMessage) error
}

// ParticipantRepository defines the contract for tracked participants.
type ParticipantRepository interface {
	// Upsert inserts or refreshes a participant keyed by
	// (meeting_id, name), updating zoom_id, email, and joined_at.
	Upsert(ctx context.Context, p *models.Participant) error

	// Get returns one participant. Returns nil, nil if not found.
	Get(ctx context.Context, meetingID int64, name string) (*models.Participant, error)

	// ListByMeeting returns participants ordered by created_at ascending,
	// which is the order the rendering relies on.
	ListByMeeting(ctx context.Context, meetingID int64) ([]models.Participant, error)

	// Remove deletes one participant. No-op if absent.
	Remove(ctx context.Context, meetingID int64, name string) error
}
