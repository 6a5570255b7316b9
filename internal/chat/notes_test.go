package chat

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

func TestNotesCreate_DefaultsAndValidation(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewNotes(h.store, zerolog.Nop())

	_, err := svc.Create("u_ana", "   ", nil, nil, false)
	require.ErrorIs(t, err, ErrValidation)

	n, err := svc.Create("u_ana", "  call vendor  ", nil, nil, true)
	require.NoError(t, err)
	require.Equal(t, "call vendor", n.Text)
	require.Equal(t, []string{"u_ana"}, n.Assignees, "assignees default to the creator")
	require.Equal(t, models.NoteOpen, n.Status)
	require.True(t, n.Important)
	require.Contains(t, n.SeenBy, "u_ana")
}

func TestNotesUpdate_PatchSemantics(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewNotes(h.store, zerolog.Nop())

	due := int64(5000)
	n, err := svc.Create("u_ana", "task", []string{"u_bob"}, &due, false)
	require.NoError(t, err)

	// Simulate a prior firing, then verify an edit re-arms the gate.
	require.NoError(t, h.store.Apply(func(doc *store.Document) error {
		at := int64(6000)
		doc.NoteByID(n.ID).LastTriggeredAt = &at
		return nil
	}))

	text := "task v2"
	updated, err := svc.Update("u_ana", n.ID, Patch{Text: &text})
	require.NoError(t, err)
	require.Equal(t, "task v2", updated.Text)
	require.Nil(t, updated.LastTriggeredAt)
	require.Equal(t, due, *updated.DueAt, "due untouched when DueSet is false")

	// Explicit null clears the due date.
	updated, err = svc.Update("u_ana", n.ID, Patch{DueSet: true})
	require.NoError(t, err)
	require.Nil(t, updated.DueAt)

	// Emptying assignees falls back to the creator.
	updated, err = svc.Update("u_ana", n.ID, Patch{AssigneesSet: true})
	require.NoError(t, err)
	require.Equal(t, []string{"u_ana"}, updated.Assignees)
}

func TestNotesPermissions(t *testing.T) {
	h := newHarness(t, "u_ana", "u_bob", "u_eve", "u_root")
	h.seedUsers(t,
		models.User{ID: "u_bob", Username: "bob", Role: models.RoleUser},
		models.User{ID: "u_eve", Username: "eve", Role: models.RoleUser},
		models.User{ID: "u_root", Username: "root", Role: models.RoleAdmin},
	)
	svc := NewNotes(h.store, zerolog.Nop())

	n, err := svc.Create("u_ana", "task", []string{"u_bob"}, nil, false)
	require.NoError(t, err)

	// Assignees may complete and snooze, but not edit or delete.
	_, err = svc.Snooze("u_bob", n.ID, 10)
	require.NoError(t, err)
	text := "hijack"
	_, err = svc.Update("u_bob", n.ID, Patch{Text: &text})
	require.ErrorIs(t, err, ErrForbidden)
	require.ErrorIs(t, svc.Delete("u_bob", n.ID), ErrForbidden)

	// Uninvolved users may do nothing.
	_, err = svc.Done("u_eve", n.ID)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Snooze("u_eve", n.ID, 10)
	require.ErrorIs(t, err, ErrForbidden)

	// Admins may do everything.
	_, err = svc.Update("u_root", n.ID, Patch{Text: &text})
	require.NoError(t, err)
	require.NoError(t, svc.Delete("u_root", n.ID))

	_, err = svc.Done("u_ana", "n_missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNotesSnooze_RangeAndGate(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewNotes(h.store, zerolog.Nop())
	svc.now = func() int64 { return 100_000 }

	due := int64(50_000)
	n, err := svc.Create("u_ana", "task", nil, &due, false)
	require.NoError(t, err)

	_, err = svc.Snooze("u_ana", n.ID, 0)
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Snooze("u_ana", n.ID, 1441)
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, h.store.Apply(func(doc *store.Document) error {
		at := int64(60_000)
		doc.NoteByID(n.ID).LastTriggeredAt = &at
		return nil
	}))

	snoozed, err := svc.Snooze("u_ana", n.ID, 15)
	require.NoError(t, err)
	require.Equal(t, int64(100_000+15*60*1000), *snoozed.SnoozeUntil)
	require.Nil(t, snoozed.LastTriggeredAt, "snoozing re-arms the trigger gate")
}

func TestNotesDone_Terminal(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewNotes(h.store, zerolog.Nop())

	n, err := svc.Create("u_ana", "task", nil, nil, false)
	require.NoError(t, err)

	done, err := svc.Done("u_ana", n.ID)
	require.NoError(t, err)
	require.Equal(t, models.NoteDone, done.Status)
	require.Equal(t, "u_ana", *done.DoneByID)
	require.NotNil(t, done.DoneAt)
}

func TestNotesList_Scopes(t *testing.T) {
	h := newHarness(t, "u_ana", "u_bob", "u_root")
	h.seedUsers(t,
		models.User{ID: "u_bob", Username: "bob", Role: models.RoleUser},
		models.User{ID: "u_root", Username: "root", Role: models.RoleAdmin},
	)
	svc := NewNotes(h.store, zerolog.Nop())

	early := int64(1000)
	late := int64(2000)
	_, err := svc.Create("u_ana", "ana's for bob", []string{"u_bob"}, &late, false)
	require.NoError(t, err)
	_, err = svc.Create("u_bob", "bob's own", nil, &early, false)
	require.NoError(t, err)
	_, err = svc.Create("u_ana", "undated", nil, nil, false)
	require.NoError(t, err)

	inbox := svc.List("u_bob", "inbox")
	require.Len(t, inbox, 2)
	require.Equal(t, "bob's own", inbox[0].Text, "earliest due first")
	require.Equal(t, "ana's for bob", inbox[1].Text)

	created := svc.List("u_bob", "created")
	require.Len(t, created, 1)

	// "all" widens only for admins; undated notes sort last.
	all := svc.List("u_root", "all")
	require.Len(t, all, 3)
	require.Equal(t, "undated", all[2].Text)
	require.Len(t, svc.List("u_bob", "all"), 2)
}

func TestNotesMarkSeen_SkipsUninvolved(t *testing.T) {
	h := newHarness(t, "u_ana", "u_bob")
	svc := NewNotes(h.store, zerolog.Nop())

	mine, err := svc.Create("u_ana", "mine", nil, nil, false)
	require.NoError(t, err)
	theirs, err := svc.Create("u_bob", "theirs", nil, nil, false)
	require.NoError(t, err)

	require.NoError(t, svc.MarkSeen("u_ana", []string{mine.ID, theirs.ID, "n_missing"}))

	h.store.View(func(doc *store.Document) {
		require.Contains(t, doc.NoteByID(mine.ID).SeenBy, "u_ana")
		require.NotContains(t, doc.NoteByID(theirs.ID).SeenBy, "u_ana")
	})

	// Nothing applicable: still a success.
	require.NoError(t, svc.MarkSeen("u_ana", []string{theirs.ID}))
	require.NoError(t, svc.MarkSeen("u_ana", nil))
}
