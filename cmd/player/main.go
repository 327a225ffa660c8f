package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/cutscene-engine/internal/config"
	"github.com/jwebster45206/cutscene-engine/internal/logger"
	"github.com/jwebster45206/cutscene-engine/internal/scene"
	"github.com/jwebster45206/cutscene-engine/internal/scripting"
	"github.com/jwebster45206/cutscene-engine/internal/services"
	"github.com/jwebster45206/cutscene-engine/internal/services/events"
	internalstorage "github.com/jwebster45206/cutscene-engine/internal/storage"
	"github.com/jwebster45206/cutscene-engine/pkg/action"
	"github.com/jwebster45206/cutscene-engine/pkg/identity"
	"github.com/jwebster45206/cutscene-engine/pkg/playback"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <cutscene-name>\n", os.Args[0])
		os.Exit(1)
	}
	name := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file
	logFile, err := os.OpenFile(getEnv("PLAYER_LOG", "player.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	sessionID := uuid.NewString()
	log := logger.WithSession(logger.SetupWriter(cfg, logFile), sessionID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := internalstorage.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create storage: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = storage.Close() // Ignore error in defer
	}()

	c, err := storage.LoadContainer(ctx, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load cutscene %q: %v\n", name, err)
		os.Exit(1)
	}
	for _, problem := range c.Problems() {
		log.Warn("Cutscene problem", "cutscene", name, "problem", problem)
	}

	resolver, binder, closeBinder, err := loadScene(ctx, cfg.SceneManifest, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scene: %v\n", err)
		os.Exit(1)
	}
	defer closeBinder()

	st := &stage{}
	if cfg.EventsEnabled {
		observer, closeEvents, err := connectEvents(ctx, cfg.RedisURL, sessionID, name, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect playback events: %v\n", err)
			os.Exit(1)
		}
		defer closeEvents()
		st.next = observer
	}

	interpreter := playback.New(c, playback.Options{
		Display:   st,
		Effects:   st,
		Scheduler: st,
		Resolver:  resolver,
		Binder:    binder,
		Observer:  st,
		Logger:    log,
	})

	log.Info("Starting cutscene player", "cutscene", name, "nodes", len(c.Nodes), "scene_manifest", cfg.SceneManifest)

	p := tea.NewProgram(NewPlayerUI(name, interpreter, st),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// loadScene builds the live objects and their method binder. Without a
// manifest the scene is empty and every listener is reported unbound.
func loadScene(ctx context.Context, manifestPath string, log *slog.Logger) (identity.Resolver, action.Binder, func(), error) {
	noop := func() {}
	if manifestPath == "" {
		log.Info("No scene manifest configured, playing without scene objects")
		return identity.NewScene(log), action.NewMethodTable(), noop, nil
	}

	manifest, sc, err := scene.LoadScene(manifestPath, log)
	if err != nil {
		return nil, nil, noop, err
	}

	scriptPath := manifest.ScriptPath()
	if scriptPath == "" {
		return sc, action.NewMethodTable(), noop, nil
	}
	binder, err := scripting.LoadFile(ctx, scriptPath, log)
	if err != nil {
		return nil, nil, noop, err
	}
	return sc, binder, binder.Close, nil
}

func connectEvents(ctx context.Context, redisURL, sessionID, cutscene string, log *slog.Logger) (playback.Observer, func(), error) {
	client, err := services.NewRedisClient(redisURL, log)
	if err != nil {
		return nil, nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := services.WaitForConnection(waitCtx, client, log, 10, 2*time.Second); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	broadcaster := events.NewBroadcaster(client, log)
	if err := broadcaster.PublishPlaybackStarted(ctx, sessionID, cutscene); err != nil {
		log.Warn("Failed to publish playback start", "error", err)
	}
	closeFn := func() {
		_ = client.Close() // Ignore error on shutdown
	}
	return events.NewObserver(ctx, broadcaster, sessionID, cutscene), closeFn, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
