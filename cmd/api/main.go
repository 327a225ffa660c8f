package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/cutscene-engine/internal/config"
	"github.com/jwebster45206/cutscene-engine/internal/handlers"
	"github.com/jwebster45206/cutscene-engine/internal/logger"
	"github.com/jwebster45206/cutscene-engine/internal/middleware"
	internalstorage "github.com/jwebster45206/cutscene-engine/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Cutscene Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"container_format", cfg.ContainerFormat)

	storage, err := internalstorage.New(cfg, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	for attempt := 1; ; attempt++ {
		err := storage.Ping(storageCtx)
		if err == nil {
			break
		}
		log.Debug("Storage not ready yet", "error", err, "attempt", attempt)
		select {
		case <-storageCtx.Done():
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		case <-time.After(2 * time.Second):
		}
	}
	log.Info("Storage connection established successfully")

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(storage, log)
	mux.Handle("/health", healthHandler)

	cutsceneHandler := handlers.NewCutsceneHandler(log, storage)
	mux.Handle("/v1/cutscenes", cutsceneHandler)
	mux.Handle("/v1/cutscenes/", cutsceneHandler)

	handler := middleware.LoggerWith(log, mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := storage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
