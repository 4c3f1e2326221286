package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/handwave-community/handwave/internal/meeting"
	"github.com/handwave-community/handwave/internal/zoom"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "not authorized",
			err:  meeting.ErrNotAuthorized,
			want: "⚠️ Only authorized users can manage meetings.",
		},
		{
			name: "no pending",
			err:  meeting.ErrNoPending,
			want: "⚠️ You have no meeting waiting to start — run setup first.",
		},
		{
			name: "missing id",
			err:  meeting.ErrMeetingIDRequired,
			want: "⚠️ Tell me which meeting: stop <meeting id>.",
		},
		{
			name: "unknown meeting",
			err:  zoom.ErrNotFound,
			want: "⚠️ No such meeting — create a new one instead.",
		},
		{
			name: "provider down",
			err:  &zoom.ProviderError{Status: 500, Body: "boom"},
			want: "🚨 Could not create the meeting — Zoom is not cooperating.",
		},
		{
			name: "anything else",
			err:  errors.New("db on fire"),
			want: "🚨 Something went wrong running setup.",
		},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, userMessage("setup", tc.err), tc.name)
	}
}
