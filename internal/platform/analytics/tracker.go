// Package analytics sends product events to PostHog.
package analytics

import (
	"context"
	"io"
	"log/slog"

	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
	"github.com/SscSPs/referral_vault/internal/middleware"
	"github.com/posthog/posthog-go"
)

// Tracker enqueues events on a PostHog client. A Tracker without a client
// drops every event.
type Tracker struct {
	client posthog.Client
}

var _ portssvc.EventTracker = (*Tracker)(nil)

// NewTracker returns a no-op tracker when apiKey is empty.
func NewTracker(apiKey, endpoint string) (*Tracker, error) {
	if apiKey == "" {
		return &Tracker{}, nil
	}
	cfg := posthog.Config{}
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	client, err := posthog.NewWithConfig(apiKey, cfg)
	if err != nil {
		return nil, err
	}
	return &Tracker{client: client}, nil
}

// Enabled reports whether events leave the process.
func (t *Tracker) Enabled() bool {
	return t != nil && t.client != nil
}

func (t *Tracker) Track(ctx context.Context, distinctID, event string, properties map[string]any) {
	if !t.Enabled() || distinctID == "" {
		return
	}
	err := t.client.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: posthog.Properties(properties),
	})
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to enqueue analytics event", slog.String("event", event), slog.String("error", err.Error()))
	}
}

// Close flushes queued events.
func (t *Tracker) Close() error {
	if !t.Enabled() {
		return nil
	}
	return t.client.Close()
}

var _ io.Closer = (*Tracker)(nil)
