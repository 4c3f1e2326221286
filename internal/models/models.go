package models

import (
	"time"
)

// Meeting is a Zoom meeting the bot manages. The ID is issued by Zoom,
// not by us, so there is no local sequence for it.
//
// SetupAt is the reveal marker: while it is nil the meeting is in setup
// mode and no bound message may show the join URL, passcode, or id.
// Start flips it, and every bound message is re-rendered with details.
type Meeting struct {
	ID        int64      `json:"meeting_id"`
	Owner     string     `json:"owner"`
	JoinURL   string     `json:"join_url"`
	Passcode  string     `json:"passcode"`
	Topic     string     `json:"topic"`
	HostID    string     `json:"host_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SetupAt   *time.Time `json:"setup_at,omitempty"`
}

// Pending reports whether the meeting is still in setup mode.
func (m *Meeting) Pending() bool {
	return m.SetupAt == nil
}

// MeetingMessage binds a chat message to the meeting it displays.
// Message rows never own their meeting; deleting a meeting cascades
// to its messages, deleting one message leaves the meeting alone.
type MeetingMessage struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	MeetingID int64  `json:"meeting_id"`
}

// Participant is a person currently in a meeting, keyed by display name.
// Zoom reuses the name as the stable identity across breakout rooms, so
// a rejoin under the same name updates the row rather than duplicating it.
//
// JoinedAt carries the join_time from the most recent joined event; the
// breakout-room heuristic compares leave events against it. CreatedAt is
// our insertion time and drives the rendered ordering.
type Participant struct {
	MeetingID int64     `json:"meeting_id"`
	Name      string    `json:"name"`
	ZoomID    *string   `json:"zoom_id,omitempty"`
	Email     *string   `json:"email,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `json:"created_at"`
}
