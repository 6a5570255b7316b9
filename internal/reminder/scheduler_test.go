package reminder

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/presence"
	"github.com/eldtechnologies/chat4office/internal/store"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	events []chat.ReminderDuePayload
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(event string, payload any) {
	if event != chat.EventReminderDue {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, payload.(chat.ReminderDuePayload))
}

func (c *fakeConn) fired() []chat.ReminderDuePayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chat.ReminderDuePayload{}, c.events...)
}

func newTestScheduler(t *testing.T) (*Scheduler, *store.FileStore, *presence.Registry) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(st.Close)
	reg := presence.NewRegistry(zerolog.Nop())
	return NewScheduler(st, reg, zerolog.Nop(), 0), st, reg
}

func seedNote(t *testing.T, st *store.FileStore, n models.Note) {
	t.Helper()
	require.NoError(t, st.Apply(func(doc *store.Document) error {
		doc.Notes = append(doc.Notes, n)
		return nil
	}))
}

func due(ms int64) *int64 { return &ms }

func TestTick_FiresDueNoteOnce(t *testing.T) {
	s, st, reg := newTestScheduler(t)

	ana := &fakeConn{id: "c1"}
	bob := &fakeConn{id: "c2"}
	reg.Connect("u_ana", ana)
	reg.Connect("u_bob", bob)

	seedNote(t, st, models.Note{
		ID:        "n_1",
		CreatorID: "u_ana",
		Assignees: []string{"u_ana", "u_bob"},
		Text:      "ship it",
		Status:    models.NoteOpen,
		DueAt:     due(5000),
	})

	fired, err := s.Tick(10_000)
	require.NoError(t, err)
	require.Equal(t, 1, fired)

	require.Len(t, ana.fired(), 1)
	require.Len(t, bob.fired(), 1)
	require.Equal(t, "n_1", ana.fired()[0].NoteID)

	// The gate is persisted, so the same window never fires twice.
	st.View(func(doc *store.Document) {
		require.NotNil(t, doc.NoteByID("n_1").LastTriggeredAt)
	})
	fired, err = s.Tick(14_000)
	require.NoError(t, err)
	require.Zero(t, fired)
	require.Len(t, ana.fired(), 1)
}

func TestTick_SkipsIneligibleNotes(t *testing.T) {
	s, st, _ := newTestScheduler(t)

	gate := int64(9000)
	seedNote(t, st, models.Note{ID: "n_undated", CreatorID: "u_ana", Assignees: []string{"u_ana"}, Status: models.NoteOpen})
	seedNote(t, st, models.Note{ID: "n_future", CreatorID: "u_ana", Assignees: []string{"u_ana"}, Status: models.NoteOpen, DueAt: due(50_000)})
	seedNote(t, st, models.Note{ID: "n_done", CreatorID: "u_ana", Assignees: []string{"u_ana"}, Status: models.NoteDone, DueAt: due(5000)})
	seedNote(t, st, models.Note{ID: "n_gated", CreatorID: "u_ana", Assignees: []string{"u_ana"}, Status: models.NoteOpen, DueAt: due(5000), LastTriggeredAt: &gate})

	fired, err := s.Tick(10_000)
	require.NoError(t, err)
	require.Zero(t, fired)
}

func TestTick_SnoozeDelaysThenRefires(t *testing.T) {
	s, st, reg := newTestScheduler(t)

	ana := &fakeConn{id: "c1"}
	reg.Connect("u_ana", ana)

	snoozeUntil := int64(20_000)
	seedNote(t, st, models.Note{
		ID:          "n_1",
		CreatorID:   "u_ana",
		Assignees:   []string{"u_ana"},
		Status:      models.NoteOpen,
		DueAt:       due(5000),
		SnoozeUntil: &snoozeUntil,
	})

	// Inside the snooze window: silent.
	fired, err := s.Tick(10_000)
	require.NoError(t, err)
	require.Zero(t, fired)

	// Snooze expired and the gate is clear: fires again.
	fired, err = s.Tick(25_000)
	require.NoError(t, err)
	require.Equal(t, 1, fired)
	require.Len(t, ana.fired(), 1)
}

func TestTick_OfflineAssigneesStillGated(t *testing.T) {
	s, st, _ := newTestScheduler(t)

	seedNote(t, st, models.Note{
		ID:        "n_1",
		CreatorID: "u_ana",
		Assignees: []string{"u_ana"},
		Status:    models.NoteOpen,
		DueAt:     due(5000),
	})

	// Nobody online: the firing is still consumed, not retried forever.
	fired, err := s.Tick(10_000)
	require.NoError(t, err)
	require.Equal(t, 1, fired)

	fired, err = s.Tick(14_000)
	require.NoError(t, err)
	require.Zero(t, fired)
}
