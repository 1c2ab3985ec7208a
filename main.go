package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quixote-kitchen/comanda/chat"
	"github.com/quixote-kitchen/comanda/config"
	"github.com/quixote-kitchen/comanda/server"
	"github.com/quixote-kitchen/comanda/session"
	"github.com/quixote-kitchen/comanda/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Model collaborator
	completer, err := chat.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.ModelName, cfg.ModelTimeout)
	if err != nil {
		logrus.Fatalf("Failed to create model client: %v", err)
	}

	// Order record store
	orderStore, err := store.NewStore(cfg.InvoiceDir)
	if err != nil {
		logrus.Fatalf("Failed to open order store: %v", err)
	}

	// Create session manager
	sessionManager, err := session.NewManager(cfg, completer, orderStore)
	if err != nil {
		logrus.Fatalf("Failed to create session manager: %v", err)
	}

	// Start cleanup routine
	go sessionManager.StartCleanupRoutine(ctx)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	srv := server.NewServerWebsocket(cfg, sessionManager)

	go func() {
		<-sigChan
		logrus.Info("Received shutdown signal...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("Server shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
		logrus.Fatalf("Server error: %v", err)
	}

	logrus.Info("Server stopped")
}
