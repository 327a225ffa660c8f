package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/cutscene-engine/pkg/container"
	"github.com/jwebster45206/cutscene-engine/pkg/playback"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypePlaybackStarted  EventType = "playback.started"
	EventTypeNodeEntered      EventType = "node.entered"
	EventTypePlaybackFinished EventType = "playback.finished"
	EventTypePlaybackFailed   EventType = "playback.failed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Cutscene  string         `json:"cutscene,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel returns the pub/sub channel for a playback session
func Channel(sessionID string) string {
	return fmt.Sprintf("cutscene-events:%s", sessionID)
}

// Broadcaster publishes playback events to Redis Pub/Sub
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishPlaybackStarted publishes a playback.started event
func (b *Broadcaster) PublishPlaybackStarted(ctx context.Context, sessionID, cutscene string) error {
	return b.publish(ctx, Event{
		Type:      EventTypePlaybackStarted,
		SessionID: sessionID,
		Cutscene:  cutscene,
	})
}

// PublishNodeEntered publishes a node.entered event
func (b *Broadcaster) PublishNodeEntered(ctx context.Context, sessionID, cutscene string, rec container.NodeRecord) error {
	return b.publish(ctx, Event{
		Type:      EventTypeNodeEntered,
		SessionID: sessionID,
		Cutscene:  cutscene,
		Data: map[string]any{
			"node_id": rec.GUID,
			"type":    rec.Kind,
			"name":    rec.Name,
		},
	})
}

// PublishPlaybackFinished publishes a playback.finished event
func (b *Broadcaster) PublishPlaybackFinished(ctx context.Context, sessionID, cutscene string) error {
	return b.publish(ctx, Event{
		Type:      EventTypePlaybackFinished,
		SessionID: sessionID,
		Cutscene:  cutscene,
		Data:      map[string]any{"status": "finished"},
	})
}

// PublishPlaybackFailed publishes a playback.failed event
func (b *Broadcaster) PublishPlaybackFailed(ctx context.Context, sessionID, cutscene string, errorMsg string) error {
	return b.publish(ctx, Event{
		Type:      EventTypePlaybackFailed,
		SessionID: sessionID,
		Cutscene:  cutscene,
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

// publish publishes an event to the session-specific channel
func (b *Broadcaster) publish(ctx context.Context, event Event) error {
	channel := Channel(event.SessionID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}

// Observer forwards interpreter progress for one session to a Broadcaster.
// Publish failures are logged by the broadcaster and never stop playback.
type Observer struct {
	ctx         context.Context
	broadcaster *Broadcaster
	sessionID   string
	cutscene    string
}

// Ensure Observer implements playback.Observer
var _ playback.Observer = (*Observer)(nil)

// NewObserver creates an observer for one playback session
func NewObserver(ctx context.Context, b *Broadcaster, sessionID, cutscene string) *Observer {
	return &Observer{ctx: ctx, broadcaster: b, sessionID: sessionID, cutscene: cutscene}
}

func (o *Observer) NodeEntered(rec container.NodeRecord) {
	_ = o.broadcaster.PublishNodeEntered(o.ctx, o.sessionID, o.cutscene, rec)
}

func (o *Observer) PlaybackFinished() {
	_ = o.broadcaster.PublishPlaybackFinished(o.ctx, o.sessionID, o.cutscene)
}

func (o *Observer) PlaybackFailed(err error) {
	_ = o.broadcaster.PublishPlaybackFailed(o.ctx, o.sessionID, o.cutscene, err.Error())
}
