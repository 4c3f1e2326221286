package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNextOccurrence(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name   string
		now    time.Time
		hour   int
		minute int
		want   time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 3, 2, 8, 0, 0, 0, loc),
			hour: 9, minute: 30,
			want: time.Date(2026, 3, 2, 9, 30, 0, 0, loc),
		},
		{
			name: "already passed, tomorrow",
			now:  time.Date(2026, 3, 2, 10, 0, 0, 0, loc),
			hour: 9, minute: 30,
			want: time.Date(2026, 3, 3, 9, 30, 0, 0, loc),
		},
		{
			name: "exactly now goes to tomorrow",
			now:  time.Date(2026, 3, 2, 9, 30, 0, 0, loc),
			hour: 9, minute: 30,
			want: time.Date(2026, 3, 3, 9, 30, 0, 0, loc),
		},
		{
			name: "month boundary",
			now:  time.Date(2026, 2, 28, 23, 59, 0, 0, loc),
			hour: 9, minute: 0,
			want: time.Date(2026, 3, 1, 9, 0, 0, 0, loc),
		},
	}

	for _, tc := range tests {
		got := NextOccurrence(tc.now, tc.hour, tc.minute)
		assert.True(t, got.Equal(tc.want), "%s: got %v, want %v", tc.name, got, tc.want)
	}
}

func TestAtStopsOnCancel(t *testing.T) {
	s := New(time.UTC, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{}, 1)
	s.At(ctx, 0, 0, "test", func(context.Context) {
		ran <- struct{}{}
	})

	cancel()
	select {
	case <-ran:
		t.Fatal("task ran despite cancellation before its time")
	case <-time.After(50 * time.Millisecond):
	}
}
