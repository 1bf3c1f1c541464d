package repository

import (
	"context"

	"territory-run/internal/game/domain/geo"
	"territory-run/internal/game/domain/model"

	"github.com/paulmach/orb"
)

// TileStore is the single source of truth for tile ownership. All components
// reason about ownership only through it.
//
// The claim operation is atomic per tile: create-or-update in one step,
// returning the previous owner from the same step so callers never need a
// separate pre-read that could go stale under concurrent captures. There is
// no multi-tile transaction; cross-transaction safety is enforced at the
// granularity of a single tile.
type TileStore interface {
	// GetByCell returns the tile for a cell, or errors.ErrTileNotFound when
	// no tile has been materialized there yet.
	GetByCell(ctx context.Context, cell geo.Cell) (*model.Tile, error)

	// UpsertClaim atomically creates the tile (with the given bounds) if
	// absent, sets its owner, and returns the owner that was recorded before
	// this claim ("" when the tile was unowned or newly created). Concurrent
	// first-touch creation of the same cell must resolve to a single tile
	// row: the losing writer claims the winner's tile instead of creating a
	// duplicate.
	UpsertClaim(ctx context.Context, cell geo.Cell, bounds orb.Bound, ownerID string) (previousOwner string, err error)

	// RangeQuery returns tiles with rowMin <= row <= rowMax and
	// colMin <= col <= colMax, ordered by (row, col) ascending, capped at
	// limit.
	RangeQuery(ctx context.Context, rowMin, rowMax, colMin, colMax, limit int) ([]model.Tile, error)

	// AllTiles returns up to limit tiles ordered by (row, col) ascending.
	// Serves the documented fallback for proximity queries with invalid
	// coordinates.
	AllTiles(ctx context.Context, limit int) ([]model.Tile, error)

	// CountByOwner returns the number of tiles per owning user. Unowned
	// tiles are not represented.
	CountByOwner(ctx context.Context) (map[string]int64, error)
}

// RunRepository persists immutable run records.
type RunRepository interface {
	Create(ctx context.Context, run *model.Run) error
	GetByID(ctx context.Context, id string) (*model.Run, error)
	// ListByUser returns the user's most recent runs, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Run, error)
}
