package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maxnotes/application/ports"
	"maxnotes/application/services"
	"maxnotes/infrastructure/config"
	"maxnotes/infrastructure/di"
	"maxnotes/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Close(context.Background())

	// The feed follows session transitions: each login attaches it to the
	// new repository's stream, logout detaches it.
	container.Session.OnTransition(func(state services.SessionState, repo ports.NoteRepository) {
		if repo == nil {
			container.Feed.Detach()
			return
		}
		if err := container.Feed.Attach(ctx, repo); err != nil {
			container.Logger.Error("failed to attach note feed", zap.Error(err))
		}
	})

	go func() {
		if err := container.Session.Run(ctx); err != nil {
			container.Logger.Error("session controller stopped", zap.Error(err))
		}
	}()

	router := rest.NewRouter(
		container.Session,
		container.Feed,
		container.AuthService,
		container.Attachments,
		container.Processor,
		container.Location,
		container.Tokens,
		container.DomainConfig,
		cfg.EnableCORS,
		container.Logger,
	)
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("backend", cfg.StorageBackend),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	container.Feed.Detach()
	cancel()

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
