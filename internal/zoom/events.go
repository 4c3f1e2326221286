package zoom

import (
	"strconv"
	"time"
)

// Webhook event kinds the bot reacts to. Everything else is dropped.
const (
	EventParticipantJoined = "meeting.participant_joined"
	EventParticipantLeft   = "meeting.participant_left"
	EventMeetingEnded      = "meeting.ended"
)

// Event is the top-level webhook body Zoom posts.
type Event struct {
	Kind      string  `json:"event"`
	Timestamp int64   `json:"event_ts"`
	Payload   Payload `json:"payload"`
}

type Payload struct {
	AccountID string `json:"account_id"`
	Object    Object `json:"object"`
}

// Object carries the meeting the event concerns. The id arrives as a
// string; breakout-room container events omit it entirely, which is how
// the gateway recognizes and drops them.
type Object struct {
	ID          string           `json:"id"`
	UUID        string           `json:"uuid"`
	HostID      string           `json:"host_id"`
	Topic       string           `json:"topic"`
	Participant EventParticipant `json:"participant"`
}

type EventParticipant struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	ID        string `json:"id"`
	Email     string `json:"email"`
	JoinTime  string `json:"join_time"`
	LeaveTime string `json:"leave_time"`
}

// MeetingID parses the object id. ok is false for breakout containers
// and malformed ids.
func (e *Event) MeetingID() (int64, bool) {
	if e.Payload.Object.ID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(e.Payload.Object.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseEventTime handles the RFC3339 timestamps Zoom puts in
// join_time/leave_time. Zero time on failure.
func parseEventTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// JoinedAt returns the participant's join time, or zero if absent.
func (e *Event) JoinedAt() time.Time {
	return parseEventTime(e.Payload.Object.Participant.JoinTime)
}

// LeftAt returns the participant's leave time, or zero if absent.
func (e *Event) LeftAt() time.Time {
	return parseEventTime(e.Payload.Object.Participant.LeaveTime)
}
