package repository

import (
	"context"

	"territory-run/internal/game/domain/model"
)

// LeaderboardCache is a short-lived cache in front of the ownership
// aggregation. A miss is not an error; cache failures degrade to the
// aggregation path.
type LeaderboardCache interface {
	// Get returns the cached board for a limit and whether it was present.
	Get(ctx context.Context, limit int) ([]model.LeaderboardEntry, bool, error)

	// Set stores the board for a limit until the cache TTL expires.
	Set(ctx context.Context, limit int, entries []model.LeaderboardEntry) error
}
