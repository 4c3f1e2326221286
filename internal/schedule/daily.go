// Package schedule runs tasks at a fixed wall-clock time every day.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// taskTimeout bounds one task run so a hung task cannot stall the loop.
const taskTimeout = 5 * time.Minute

type Scheduler struct {
	loc    *time.Location
	logger *zap.Logger
}

func New(loc *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{loc: loc, logger: logger}
}

// At runs fn every day at the given wall-clock time in the scheduler's
// location, starting with the next occurrence: a process started after
// today's time targets tomorrow. The loop exits when ctx is cancelled.
func (s *Scheduler) At(ctx context.Context, hour, minute int, name string, fn func(context.Context)) {
	go func() {
		for {
			next := NextOccurrence(time.Now().In(s.loc), hour, minute)
			s.logger.Info("daily task scheduled",
				zap.String("task", name),
				zap.Time("next", next),
			)

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Until(next)):
			}

			s.run(ctx, name, fn)
		}
	}()
}

func (s *Scheduler) run(ctx context.Context, name string, fn func(context.Context)) {
	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("daily task panicked",
				zap.String("task", name),
				zap.Any("panic", r),
			)
		}
	}()

	fn(taskCtx)
}

// NextOccurrence returns the first time after now matching the given
// wall clock in now's location.
func NextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
