package meeting

import (
	"fmt"
	"strings"

	"github.com/handwave-community/handwave/internal/chat"
	"github.com/handwave-community/handwave/internal/models"
)

const (
	endedMarker   = "🛑 Meeting ended by host."
	expiredMarker = "🛑 Meeting expired before it was started."
	movedMarker   = "Moved below ⬇️"

	embedColorActive  = 0x2d8cff
	embedColorPending = 0x99aab5
)

// render produces the message for a meeting in its current state. A
// pending meeting gets the stand-by placeholder and never its join
// details; an active one gets the full card.
func (m *Manager) render(mt *models.Meeting, parts []models.Participant) chat.Message {
	if mt.Pending() {
		return chat.Message{Embed: &chat.Embed{
			Title:       "Stand by 👀",
			Description: "A meeting is being set up. Details will appear here soon.",
			Color:       embedColorPending,
		}}
	}

	title := mt.Topic
	if title == "" {
		title = "Practice meeting"
	}

	embed := &chat.Embed{
		Title:       title,
		Description: fmt.Sprintf("**[Join the meeting](%s)**", mt.JoinURL),
		Color:       embedColorActive,
		Fields: []chat.EmbedField{
			{Name: "Meeting ID", Value: fmt.Sprintf("%d", mt.ID), Inline: true},
			{Name: "Passcode", Value: mt.Passcode, Inline: true},
		},
	}

	if lines, overflow := m.participantLines(mt, parts); len(lines) > 0 {
		value := strings.Join(lines, "\n")
		if overflow > 0 {
			value += fmt.Sprintf("\n+%d more", overflow)
		}
		embed.Fields = append(embed.Fields, chat.EmbedField{
			Name:  fmt.Sprintf("In the room (%d)", len(parts)),
			Value: value,
		})
	}

	return chat.Message{Embed: embed}
}

// participantLines renders up to MaxListed names. The host, identified
// by zoom_id matching the cached host_id, goes first in a distinct
// style; host_id can be stale after a transfer, in which case nobody
// matches and the list falls back to plain insertion order.
func (m *Manager) participantLines(mt *models.Meeting, parts []models.Participant) ([]string, int) {
	if len(parts) == 0 {
		return nil, 0
	}

	var host *models.Participant
	rest := make([]models.Participant, 0, len(parts))
	for i := range parts {
		p := parts[i]
		if host == nil && mt.HostID != "" && p.ZoomID != nil && *p.ZoomID == mt.HostID {
			host = &parts[i]
			continue
		}
		rest = append(rest, p)
	}

	capacity := m.cfg.MaxListed
	lines := make([]string, 0, capacity)
	if host != nil {
		lines = append(lines, "🎙 **"+m.displayName(*host)+"**")
		capacity--
	}

	// Most recent names when the room is over capacity; the slice is
	// already in created_at order, so the tail is the newest.
	shown := rest
	if len(rest) > capacity {
		shown = rest[len(rest)-capacity:]
	}
	for _, p := range shown {
		lines = append(lines, m.displayName(p))
	}

	return lines, len(parts) - len(lines)
}

// displayName prefers a chat mention for operators (matched by email),
// then a best-effort first name, then the full name.
func (m *Manager) displayName(p models.Participant) string {
	if p.Email != nil {
		if chatID, ok := m.byEmail[*p.Email]; ok {
			return chat.Mention(chatID)
		}
	}
	return firstName(p.Name)
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}
