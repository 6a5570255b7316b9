package chat

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

func TestGroupsCreate_CreatorAlwaysMember(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewGroups(h.store, zerolog.Nop())

	g, err := svc.Create("u_ana", "Ops", []string{"u_bob", "u_bob", "u_ana", ""})
	require.NoError(t, err)
	require.Equal(t, "u_ana", g.OwnerID)
	require.Equal(t, []string{"u_ana", "u_bob"}, g.Members)

	// Conversation record created eagerly.
	h.store.View(func(doc *store.Document) {
		require.Len(t, doc.GroupConversations, 1)
		require.Equal(t, g.ID, doc.GroupConversations[0].ID)
	})
}

func TestGroupsCreate_NameSanitized(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewGroups(h.store, zerolog.Nop())

	g, err := svc.Create("u_ana", "   ", nil)
	require.NoError(t, err)
	require.Equal(t, "Grup", g.Name)

	long, err := svc.Create("u_ana", strings.Repeat("x", 100), nil)
	require.NoError(t, err)
	require.Len(t, long.Name, 60)
}

func TestGroupsUpdate_OwnerCannotBeRemoved(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewGroups(h.store, zerolog.Nop())

	g, err := svc.Create("u_ana", "Ops", []string{"u_bob"})
	require.NoError(t, err)

	updated, err := svc.Update("u_ana", g.ID, UpdateRequest{
		RemoveMembers: []string{"u_ana", "u_bob"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"u_ana"}, updated.Members)
}

func TestGroupsUpdate_ManagerGate(t *testing.T) {
	h := newHarness(t, "u_ana", "u_bob", "u_root")
	h.seedUsers(t,
		models.User{ID: "u_bob", Username: "bob", Role: models.RoleUser},
		models.User{ID: "u_root", Username: "root", Role: models.RoleAdmin},
	)
	svc := NewGroups(h.store, zerolog.Nop())

	g, err := svc.Create("u_ana", "Ops", []string{"u_bob"})
	require.NoError(t, err)

	// A plain member cannot manage the group.
	_, err = svc.Update("u_bob", g.ID, UpdateRequest{AddMembers: []string{"u_eve"}})
	require.ErrorIs(t, err, ErrForbidden)

	// An admin can, even without membership.
	name := "Renamed"
	updated, err := svc.Update("u_root", g.ID, UpdateRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)

	_, err = svc.Update("u_ana", "g_missing", UpdateRequest{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGroupsUpdate_BlankNameIgnored(t *testing.T) {
	h := newHarness(t, "u_ana")
	svc := NewGroups(h.store, zerolog.Nop())

	g, err := svc.Create("u_ana", "Ops", nil)
	require.NoError(t, err)

	blank := "   "
	updated, err := svc.Update("u_ana", g.ID, UpdateRequest{Name: &blank})
	require.NoError(t, err)
	require.Equal(t, "Ops", updated.Name)
}

func TestGroupsListFor(t *testing.T) {
	h := newHarness(t, "u_ana", "u_bob")
	svc := NewGroups(h.store, zerolog.Nop())

	_, err := svc.Create("u_ana", "Ops", []string{"u_bob"})
	require.NoError(t, err)
	_, err = svc.Create("u_ana", "Private", nil)
	require.NoError(t, err)

	require.Len(t, svc.ListFor("u_ana"), 2)
	require.Len(t, svc.ListFor("u_bob"), 1)
	require.Empty(t, svc.ListFor("u_eve"))
}
