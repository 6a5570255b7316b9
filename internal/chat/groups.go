package chat

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/models"
	"github.com/eldtechnologies/chat4office/internal/store"
)

const maxGroupNameLen = 60

// Groups manages group lifecycle and membership. The owner is always a
// member: creation adds them and a membership update that would remove
// them re-adds them.
type Groups struct {
	store  *store.FileStore
	logger zerolog.Logger
	now    func() int64
}

// NewGroups creates the group management service.
func NewGroups(st *store.FileStore, logger zerolog.Logger) *Groups {
	return &Groups{
		store:  st,
		logger: logger.With().Str("component", "groups").Logger(),
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// ListFor returns every group the user is a member of.
func (s *Groups) ListFor(userID string) []models.Group {
	groups := []models.Group{}
	s.store.View(func(doc *store.Document) {
		for _, g := range doc.Groups {
			if g.HasMember(userID) {
				groups = append(groups, g)
			}
		}
	})
	return groups
}

// Create makes a new group owned by the creator. The creator is always
// included in the member set, members are deduplicated, and the group's
// conversation record is created eagerly.
func (s *Groups) Create(creatorID, name string, members []string) (models.Group, error) {
	name = sanitizeGroupName(name, "Grup")
	now := s.now()
	g := models.Group{
		ID:        models.NewID("g"),
		Name:      name,
		OwnerID:   creatorID,
		Members:   dedupe(append([]string{creatorID}, members...)),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.store.Apply(func(doc *store.Document) error {
		doc.Groups = append(doc.Groups, g)
		doc.GroupConversation(g.ID)
		doc.AddActivity("group_created", creatorID, map[string]any{
			"groupId": g.ID,
			"name":    g.Name,
			"members": g.Members,
		})
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// UpdateRequest is a partial group update. Nil fields are untouched.
type UpdateRequest struct {
	Name          *string
	AddMembers    []string
	RemoveMembers []string
}

// Update renames a group and/or adjusts its membership. Only the owner
// or an admin may manage a group. Removing the owner is silently undone.
func (s *Groups) Update(actorID, groupID string, req UpdateRequest) (models.Group, error) {
	var updated models.Group
	err := s.store.Apply(func(doc *store.Document) error {
		g := doc.GroupByID(groupID)
		if g == nil {
			return ErrNotFound
		}
		if !isGroupManager(doc, actorID, g) {
			return ErrForbidden
		}

		if req.Name != nil {
			if name := sanitizeGroupName(*req.Name, ""); name != "" {
				g.Name = name
			}
		}
		for _, id := range req.AddMembers {
			if !g.HasMember(id) {
				g.Members = append(g.Members, id)
			}
		}
		if len(req.RemoveMembers) > 0 {
			remove := map[string]bool{}
			for _, id := range req.RemoveMembers {
				remove[id] = true
			}
			kept := g.Members[:0]
			for _, id := range g.Members {
				if !remove[id] {
					kept = append(kept, id)
				}
			}
			g.Members = kept
			if !g.HasMember(g.OwnerID) {
				g.Members = append(g.Members, g.OwnerID)
			}
		}
		g.UpdatedAt = s.now()

		doc.AddActivity("group_updated", actorID, map[string]any{
			"groupId":       g.ID,
			"name":          g.Name,
			"addMembers":    req.AddMembers,
			"removeMembers": req.RemoveMembers,
		})
		updated = *g
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return updated, nil
}

// isGroupManager reports whether the actor may manage the group: the
// owner, or any admin.
func isGroupManager(doc *store.Document, actorID string, g *models.Group) bool {
	if g.OwnerID == actorID {
		return true
	}
	u := doc.UserByID(actorID)
	return u != nil && u.IsAdmin()
}

func sanitizeGroupName(name, fallback string) string {
	name = strings.TrimSpace(name)
	if len(name) > maxGroupNameLen {
		name = name[:maxGroupNameLen]
	}
	if name == "" {
		return fallback
	}
	return name
}

func dedupe(ids []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
