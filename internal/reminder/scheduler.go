// Package reminder fires due-note notifications on a polling schedule.
package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/metrics"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/presence"
	"github.com/eldtechnologies/chat4office/internal/store"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 4 * time.Second

// Scheduler scans open notes and pushes reminder_due events to
// assignees. Firing is edge-triggered through the lastTriggeredAt gate:
// a note fires at most once per trigger window, and only snoozing or
// editing the note re-arms it. Run executes ticks strictly one after
// another, so overlapping ticks cannot occur.
type Scheduler struct {
	store    *store.FileStore
	registry *presence.Registry
	logger   zerolog.Logger
	interval time.Duration
}

// NewScheduler creates a scheduler polling at the given interval.
func NewScheduler(st *store.FileStore, reg *presence.Registry, logger zerolog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:    st,
		registry: reg,
		logger:   logger.With().Str("component", "reminder").Logger(),
		interval: interval,
	}
}

// Run ticks until the context is cancelled. Each tick completes before
// the next one starts.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("reminder scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Tick(time.Now().UnixMilli()); err != nil {
				s.logger.Error().Err(err).Msg("tick failed")
			}
		}
	}
}

type firing struct {
	noteID    string
	assignees []string
}

// Tick evaluates every open note against now (Unix ms) and fires the
// eligible ones. A note is eligible iff its due point has passed, any
// snooze has expired, and the trigger gate is clear. The gate update is
// persisted before any event is pushed, which yields at-most-once firing
// per trigger window even if the process dies mid-fanout and restarts.
// Returns the number of notes fired.
func (s *Scheduler) Tick(now int64) (int, error) {
	var fired []firing
	err := s.store.Apply(func(doc *store.Document) error {
		for i := range doc.Notes {
			n := &doc.Notes[i]
			if n.Status != models.NoteOpen || n.DueAt == nil {
				continue
			}
			if n.SnoozeUntil != nil && *n.SnoozeUntil > now {
				continue
			}
			if *n.DueAt > now {
				continue
			}
			if n.LastTriggeredAt != nil {
				continue
			}
			at := now
			n.LastTriggeredAt = &at
			n.UpdatedAt = now
			fired = append(fired, firing{
				noteID:    n.ID,
				assignees: append([]string{}, n.Assignees...),
			})
		}
		if len(fired) == 0 {
			return store.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, f := range fired {
		for _, assigneeID := range f.assignees {
			s.registry.Fanout(assigneeID, chat.EventReminderDue, chat.ReminderDuePayload{NoteID: f.noteID})
		}
		metrics.RemindersFired.Inc()
		s.logger.Debug().Str("note_id", f.noteID).Int("assignees", len(f.assignees)).Msg("reminder fired")
	}
	return len(fired), nil
}
