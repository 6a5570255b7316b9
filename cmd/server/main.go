package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/chat4office/internal/api"
	"github.com/eldtechnologies/chat4office/internal/auth"
	"github.com/eldtechnologies/chat4office/internal/chat"
	"github.com/eldtechnologies/chat4office/internal/config"
	"github.com/eldtechnologies/chat4office/internal/presence"
	"github.com/eldtechnologies/chat4office/internal/reminder"
	"github.com/eldtechnologies/chat4office/internal/store"
	"github.com/eldtechnologies/chat4office/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	// Open the document store
	st, err := store.Open(cfg.DataPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DataPath).Msg("store open failed")
	}
	defer st.Close()
	logger.Info().Str("path", cfg.DataPath).Msg("document store loaded")

	// Presence and sessions
	registry := presence.NewRegistry(logger)
	sessions := auth.NewSessions()

	// Domain services
	chatRouter := chat.NewRouter(st, registry, logger)
	receipts := chat.NewReceipts(st, registry, logger)
	conversations := chat.NewConversations(st, logger)
	groups := chat.NewGroups(st, logger)
	notes := chat.NewNotes(st, logger)

	// Websocket gateway
	dispatcher := ws.NewDispatcher(chatRouter, receipts, logger)
	gateway := ws.NewGateway(registry, dispatcher, logger)

	// Reminder scheduler
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := reminder.NewScheduler(st, registry, logger, cfg.ReminderTick)
	go scheduler.Run(ctx)

	// Create router
	router := api.NewRouter(logger, api.Deps{
		Store:         st,
		Sessions:      sessions,
		Conversations: conversations,
		Groups:        groups,
		Notes:         notes,
		Gateway:       gateway,
	})

	// Create server
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Write timeout would sever long-lived websocket connections, so
		// only the read side is bounded.
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat4office server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
