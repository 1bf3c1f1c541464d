package model

import (
	"time"

	"territory-run/internal/game/domain/geo"
)

// CaptureResult reports the outcome of one capture transaction. The tile
// count includes self-recaptured tiles; the dispossessed set holds the
// distinct previous owners who lost at least one tile, excluding the acting
// user, each appearing at most once.
type CaptureResult struct {
	RunID              string     `json:"runId"`
	UserID             string     `json:"userId"`
	CapturedCells      []geo.Cell `json:"capturedCells"`
	CapturedTileCount  int        `json:"capturedTileCount"`
	DispossessedOwners []string   `json:"dispossessedOwners"`
}

// CaptureEvent is the live-update payload broadcast to connected observers
// after a capture transaction completes. Delivery is best-effort with no
// acknowledgment.
type CaptureEvent struct {
	UserID     string    `json:"userId"`
	TileCount  int       `json:"tileCount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CaptureEventType is the websocket message type clients receive so they can
// refresh without polling.
const CaptureEventType = "tiles_updated"
