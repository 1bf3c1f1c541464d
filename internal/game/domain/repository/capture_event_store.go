package repository

import (
	"context"

	"territory-run/internal/game/domain/model"
)

// StoredCaptureEvent is one capture event as persisted in the event stream.
// The resume token is the stream entry ID; readers pass it back to continue
// where they left off.
type StoredCaptureEvent struct {
	ResumeToken string
	Event       model.CaptureEvent
}

// CaptureEventStore is the durable capture-event feed. It backs audit and
// catch-up reads for clients that reconnect after missing live broadcasts.
// Appends are best-effort from the capture transaction's perspective.
type CaptureEventStore interface {
	// Append adds one event to the stream.
	Append(ctx context.Context, event model.CaptureEvent) error

	// EventsSince returns events after the given resume token, oldest first.
	// An empty token reads from the beginning of the retained window.
	EventsSince(ctx context.Context, resumeToken string, count int) ([]StoredCaptureEvent, error)

	// Len returns the number of retained events.
	Len(ctx context.Context) (int64, error)
}
