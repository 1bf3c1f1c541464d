package usecase

import (
	"context"
	"math"
	"sort"

	"territory-run/internal/game/domain/client"
	"territory-run/internal/game/domain/geo"
	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/domain/repository"
	"territory-run/internal/shared/logger"
)

// Query bounds. Radii clamp instead of erroring so sloppy clients still get
// a sensible map; the tile limit caps response size.
const (
	MinRadiusKm     = 0.1
	MaxRadiusKm     = 50.0
	DefaultRadiusKm = 2.0

	MinTileLimit     = 1
	MaxTileLimit     = 10000
	DefaultTileLimit = 500

	MaxLeaderboardLimit     = 100
	DefaultLeaderboardLimit = 10
)

// QueryUseCase serves read-only views over tile ownership.
type QueryUseCase interface {
	// TilesNear returns tiles within a radius box around a coordinate,
	// ordered by (row, col) ascending. Out-of-range coordinates fall back to
	// an unscoped listing rather than an error.
	TilesNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]model.Tile, error)

	// Leaderboard ranks owners by distinct tiles held right now.
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type queryUseCase struct {
	grid  *geo.Grid
	tiles repository.TileStore
	cache repository.LeaderboardCache
	auth  client.AuthClient
	log   logger.Logger
}

// NewQueryUseCase wires the read side. The cache and auth client may be nil;
// queries then skip caching and return raw owner IDs as display names.
func NewQueryUseCase(
	grid *geo.Grid,
	tiles repository.TileStore,
	cache repository.LeaderboardCache,
	auth client.AuthClient,
	log logger.Logger,
) QueryUseCase {
	return &queryUseCase{
		grid:  grid,
		tiles: tiles,
		cache: cache,
		auth:  auth,
		log:   log.WithComponent("query-usecase"),
	}
}

func (uc *queryUseCase) TilesNear(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]model.Tile, error) {
	limit = clampInt(limit, MinTileLimit, MaxTileLimit, DefaultTileLimit)

	// Negated range check so NaN coordinates fail into the fallback too;
	// every comparison against NaN is false.
	if !(lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180) {
		uc.log.WithContext(ctx).Warnf("Proximity query with invalid center (%f,%f), returning unscoped listing", lat, lng)
		return uc.tiles.AllTiles(ctx, limit)
	}

	radiusKm = clampFloat(radiusKm, MinRadiusKm, MaxRadiusKm, DefaultRadiusKm)

	dLat := radiusKm * geo.DegreesPerKmLat()
	dLng := radiusKm * geo.DegreesPerKmLng(lat)
	rowMin, rowMax, colMin, colMax := uc.grid.CellRange(lat-dLat, lng-dLng, lat+dLat, lng+dLng)

	return uc.tiles.RangeQuery(ctx, rowMin, rowMax, colMin, colMax, limit)
}

func (uc *queryUseCase) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	limit = clampInt(limit, 1, MaxLeaderboardLimit, DefaultLeaderboardLimit)

	if uc.cache != nil {
		if entries, ok, err := uc.cache.Get(ctx, limit); err != nil {
			uc.log.WithContext(ctx).Warnf("Leaderboard cache read failed: %v", err)
		} else if ok {
			return entries, nil
		}
	}

	counts, err := uc.tiles.CountByOwner(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(counts))
	for ownerID, count := range counts {
		entries = append(entries, model.LeaderboardEntry{OwnerID: ownerID, TileCount: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TileCount != entries[j].TileCount {
			return entries[i].TileCount > entries[j].TileCount
		}
		return entries[i].OwnerID < entries[j].OwnerID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	uc.resolveDisplayNames(ctx, entries)

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, limit, entries); err != nil {
			uc.log.WithContext(ctx).Warnf("Leaderboard cache write failed: %v", err)
		}
	}
	return entries, nil
}

// resolveDisplayNames fills usernames from the identity module. Resolution
// failures degrade to raw owner IDs, never to a failed query.
func (uc *queryUseCase) resolveDisplayNames(ctx context.Context, entries []model.LeaderboardEntry) {
	for i := range entries {
		entries[i].Username = entries[i].OwnerID
	}
	if uc.auth == nil || len(entries) == 0 {
		return
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.OwnerID
	}
	names, err := uc.auth.ResolveUsernames(ctx, ids)
	if err != nil {
		uc.log.WithContext(ctx).Warnf("Username resolution failed for leaderboard: %v", err)
		return
	}
	for i := range entries {
		if name, ok := names[entries[i].OwnerID]; ok && name != "" {
			entries[i].Username = name
		}
	}
}

func clampInt(v, min, max, def int) int {
	if v <= 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max, def float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
