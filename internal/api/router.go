package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/api/middleware"
	"github.com/eldtechnologies/chat4office/internal/auth"
	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/handlers"
	"github.com/eldtechnologies/chat4office/internal/store"
	"github.com/eldtechnologies/chat4office/internal/ws"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Store         *store.FileStore
	Sessions      *auth.Sessions
	Conversations *chat.Conversations
	Groups        *chat.Groups
	Notes         *chat.Notes
	Gateway       *ws.Gateway
}

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(2 * 1024 * 1024)) // 2MB max body

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - credentials ride on the session cookie, so origins echo back
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(deps.Store, deps.Sessions, deps.Conversations, deps.Groups, deps.Notes)
	authmw := middleware.NewAuthMiddleware(deps.Store, deps.Sessions)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Post("/api/login", h.Login)

	// Authenticated routes (require session cookie)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth)

		r.Get("/ws", deps.Gateway.Handle)

		r.Post("/api/logout", h.Logout)
		r.Get("/api/me", h.Me)
		r.Get("/api/users", h.ListUsers)
		r.Get("/api/settings", h.GetSettings)

		r.Get("/api/unread_counts", h.UnreadCounts)
		r.Get("/api/messages/{otherUserId}", h.GetMessages)
		r.Post("/api/messages/{otherUserId}/clear", h.ClearMessages)

		r.Get("/api/groups", h.ListGroups)
		r.Post("/api/groups", h.CreateGroup)
		r.Patch("/api/groups/{id}", h.UpdateGroup)
		r.Get("/api/group_messages/{groupId}", h.GetGroupMessages)
		r.Post("/api/group_messages/{groupId}/clear", h.ClearGroupMessages)

		r.Get("/api/notes", h.ListNotes)
		r.Post("/api/notes", h.CreateNote)
		r.Post("/api/notes/mark_seen", h.MarkNotesSeen)
		r.Patch("/api/notes/{id}", h.UpdateNote)
		r.Post("/api/notes/{id}/done", h.DoneNote)
		r.Post("/api/notes/{id}/snooze", h.SnoozeNote)
		r.Delete("/api/notes/{id}", h.DeleteNote)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAdmin)

			r.Post("/api/admin/users", h.CreateUser)
			r.Patch("/api/admin/users/{id}", h.UpdateUser)
			r.Delete("/api/admin/users/{id}", h.DeleteUser)
			r.Post("/api/admin/users/{id}/reset_password", h.ResetPassword)
			r.Post("/api/admin/settings", h.UpdateSettings)
			r.Get("/api/admin/activity", h.Activity)
		})
	})

	return r
}
