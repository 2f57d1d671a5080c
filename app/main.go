package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiverse-labs/content-hook/app/api"
	"github.com/aiverse-labs/content-hook/app/cfg"
	"github.com/aiverse-labs/content-hook/app/content"
	"github.com/aiverse-labs/content-hook/app/database"
	"github.com/aiverse-labs/content-hook/app/hub"
	"github.com/aiverse-labs/content-hook/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Content Hook server", "version", appCfg.Version)

	if !appCfg.SignatureEnforced() {
		slog.Warn("Webhook signature enforcement is DISABLED; set WEBHOOK_SECRET to require signed requests")
	}

	// Database connection
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	// Repositories
	contentRepo := database.NewContentItemRepository(db)
	notificationRepo := database.NewNotificationItemRepository(db)

	// Real-time broadcast hub
	wsHub := hub.NewHub()
	go wsHub.Run()

	// Background phase processing
	scheduler := tasks.NewScheduler(contentRepo, notificationRepo, wsHub)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	ingestor := content.NewIngestor(contentRepo, scheduler, wsHub)
	handler := api.NewHandler(contentRepo, notificationRepo, ingestor, wsHub)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("Content Hook server shutdown complete")
}
