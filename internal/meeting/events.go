package meeting

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/handwave-community/handwave/internal/models"
	"github.com/handwave-community/handwave/internal/zoom"
)

// breakoutWindow is how close a leave event must be to the recorded
// join for it to be read as a breakout-room transition rather than a
// real departure.
const breakoutWindow = 2 * time.Second

// HandleEvent reconciles one Zoom webhook event. Delivery is
// at-least-once and may be reordered, so every branch is idempotent.
func (m *Manager) HandleEvent(ctx context.Context, ev *zoom.Event) error {
	meetingID, ok := ev.MeetingID()
	if !ok {
		return nil
	}

	mt, err := m.meetings.Get(ctx, meetingID)
	if err != nil {
		return err
	}
	if mt == nil {
		// Not a meeting we manage. meeting.ended for an already
		// deleted row lands here too, which is exactly a no-op.
		return nil
	}

	// Zoom resends host_id on most events but does not reliably update
	// it after a host transfer; the rendering tolerates a stale value.
	if hostID := ev.Payload.Object.HostID; hostID != "" && hostID != mt.HostID {
		if err := m.meetings.SetHostID(ctx, meetingID, hostID); err != nil {
			m.logger.Warn("failed to update host id",
				zap.Int64("meeting_id", meetingID), zap.Error(err))
		} else {
			mt.HostID = hostID
		}
	}

	switch ev.Kind {
	case zoom.EventParticipantJoined:
		return m.participantJoined(ctx, mt, ev)
	case zoom.EventParticipantLeft:
		return m.participantLeft(ctx, mt, ev)
	case zoom.EventMeetingEnded:
		return m.End(ctx, meetingID, endedMarker)
	}
	return nil
}

func (m *Manager) participantJoined(ctx context.Context, mt *models.Meeting, ev *zoom.Event) error {
	p := ev.Payload.Object.Participant
	if p.UserName == "" {
		return nil
	}

	joinedAt := ev.JoinedAt()
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}

	row := &models.Participant{
		MeetingID: mt.ID,
		Name:      p.UserName,
		JoinedAt:  joinedAt,
	}
	if p.ID != "" {
		row.ZoomID = &p.ID
	}
	if p.Email != "" {
		row.Email = &p.Email
	}

	if err := m.participants.Upsert(ctx, row); err != nil {
		return err
	}
	_, err := m.propagate(ctx, mt)
	return err
}

// participantLeft applies the breakout-room heuristic: a leave within
// breakoutWindow of the recorded join is a breakout transition, not a
// departure, and is ignored. A leave with no recorded join (events
// arrived out of order) is ignored too; the next joined event restores
// the truth either way.
func (m *Manager) participantLeft(ctx context.Context, mt *models.Meeting, ev *zoom.Event) error {
	name := ev.Payload.Object.Participant.UserName
	if name == "" {
		return nil
	}

	existing, err := m.participants.Get(ctx, mt.ID, name)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	leftAt := ev.LeftAt()
	if !leftAt.IsZero() {
		delta := leftAt.Sub(existing.JoinedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta < breakoutWindow {
			m.logger.Debug("ignoring breakout-room transition",
				zap.Int64("meeting_id", mt.ID),
				zap.String("name", name),
				zap.Duration("delta", delta))
			return nil
		}
	}

	if err := m.participants.Remove(ctx, mt.ID, name); err != nil {
		return err
	}
	_, err = m.propagate(ctx, mt)
	return err
}
