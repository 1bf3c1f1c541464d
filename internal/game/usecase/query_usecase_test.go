package usecase_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"territory-run/internal/game/domain/geo"
	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/usecase"
	"territory-run/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthClient struct {
	usernames map[string]string
	fail      bool
}

func (c *stubAuthClient) ValidateToken(_ context.Context, _ string) (string, error) {
	return "", errors.New("not implemented")
}

func (c *stubAuthClient) ResolveUsernames(_ context.Context, ids []string) (map[string]string, error) {
	if c.fail {
		return nil, errors.New("identity module unreachable")
	}
	out := make(map[string]string)
	for _, id := range ids {
		if name, ok := c.usernames[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (c *stubAuthClient) FCMTokens(_ context.Context, _ []string) (map[string][]string, error) {
	return map[string][]string{}, nil
}

type memLeaderboardCache struct {
	mu      sync.Mutex
	boards  map[int][]model.LeaderboardEntry
	sets    int
	getFail bool
}

func newMemLeaderboardCache() *memLeaderboardCache {
	return &memLeaderboardCache{boards: make(map[int][]model.LeaderboardEntry)}
}

func (c *memLeaderboardCache) Get(_ context.Context, limit int) ([]model.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getFail {
		return nil, false, errors.New("cache unreachable")
	}
	entries, ok := c.boards[limit]
	return entries, ok, nil
}

func (c *memLeaderboardCache) Set(_ context.Context, limit int, entries []model.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[limit] = entries
	c.sets++
	return nil
}

func seedOwnership(t *testing.T, tiles *memTileStore, owner string, n int, latBase float64) {
	t.Helper()
	grid := geo.NewGrid(geo.DefaultGridConfig())
	for i := 0; i < n; i++ {
		lat := latBase + float64(i)*geo.DefaultCellSizeDegLat
		cell := grid.PointToCell(lat, 135.5)
		_, err := tiles.UpsertClaim(context.Background(), cell, grid.CellBounds(cell), owner)
		require.NoError(t, err)
	}
}

func TestLeaderboard_RanksByTileCount(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 3, 34.70)
	seedOwnership(t, tiles, "bob", 1, 34.80)
	auth := &stubAuthClient{usernames: map[string]string{"alice": "Alice", "bob": "Bob"}}

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, auth, logger.NewLogger())

	board, err := uc.Leaderboard(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, board, 2)

	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "alice", board[0].OwnerID)
	assert.Equal(t, "Alice", board[0].Username)
	assert.Equal(t, int64(3), board[0].TileCount)
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, "bob", board[1].OwnerID)
}

func TestLeaderboard_TiesBreakByOwnerID(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "zoe", 2, 34.70)
	seedOwnership(t, tiles, "amy", 2, 34.80)

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, nil, logger.NewLogger())

	board, err := uc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "amy", board[0].OwnerID)
	assert.Equal(t, "zoe", board[1].OwnerID)
}

func TestLeaderboard_LimitClampsAndDefaults(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 1, 34.70)

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, nil, logger.NewLogger())
	ctx := context.Background()

	board, err := uc.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, board, 1)

	board, err = uc.Leaderboard(ctx, 5000)
	require.NoError(t, err)
	assert.Len(t, board, 1)
}

func TestLeaderboard_UsernameResolutionFailureDegrades(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 1, 34.70)
	auth := &stubAuthClient{fail: true}

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, auth, logger.NewLogger())

	board, err := uc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "alice", board[0].Username)
}

func TestLeaderboard_ServedFromCache(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 2, 34.70)
	cache := newMemLeaderboardCache()

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, cache, nil, logger.NewLogger())
	ctx := context.Background()

	first, err := uc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Ownership changes after caching are not visible until expiry.
	seedOwnership(t, tiles, "bob", 5, 34.80)
	second, err := uc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.sets)
}

func TestLeaderboard_CacheFailureDegradesToAggregation(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 1, 34.70)
	cache := newMemLeaderboardCache()
	cache.getFail = true

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, cache, nil, logger.NewLogger())

	board, err := uc.Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, board, 1)
}

func TestTilesNear_ReturnsTilesInsideRadius(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 3, 34.70)
	seedOwnership(t, tiles, "bob", 2, 35.50) // ~89 km north, outside any radius used below

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, nil, logger.NewLogger())

	near, err := uc.TilesNear(context.Background(), 34.70, 135.5, 2, 100)
	require.NoError(t, err)
	assert.Len(t, near, 3)
	for _, tile := range near {
		assert.Equal(t, "alice", tile.OwnerID)
	}
}

func TestTilesNear_InvalidCenterFallsBackToAllTiles(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 3, 34.70)
	seedOwnership(t, tiles, "bob", 2, 35.50)

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, nil, logger.NewLogger())

	all, err := uc.TilesNear(context.Background(), 200, 135.5, 2, 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestTilesNear_NonFiniteCenterFallsBackToAllTiles(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 3, 34.70)
	seedOwnership(t, tiles, "bob", 2, 35.50)

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, nil, logger.NewLogger())
	ctx := context.Background()

	all, err := uc.TilesNear(ctx, math.NaN(), math.NaN(), 2, 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	all, err = uc.TilesNear(ctx, 34.70, math.NaN(), 2, 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	all, err = uc.TilesNear(ctx, math.Inf(1), 135.5, 2, 100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestTilesNear_NaNRadiusUsesDefault(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 3, 34.70)

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, nil, logger.NewLogger())

	near, err := uc.TilesNear(context.Background(), 34.70, 135.5, math.NaN(), 100)
	require.NoError(t, err)
	assert.Len(t, near, 3)
}

func TestTilesNear_RadiusAndLimitClamp(t *testing.T) {
	tiles := newMemTileStore()
	seedOwnership(t, tiles, "alice", 10, 34.70)

	grid := geo.NewGrid(geo.DefaultGridConfig())
	uc := usecase.NewQueryUseCase(grid, tiles, nil, nil, logger.NewLogger())
	ctx := context.Background()

	// Zero radius falls back to the default instead of an empty box.
	near, err := uc.TilesNear(ctx, 34.70, 135.5, 0, 100)
	require.NoError(t, err)
	assert.Len(t, near, 10)

	// Limit caps the result.
	near, err = uc.TilesNear(ctx, 34.70, 135.5, 2, 4)
	require.NoError(t, err)
	assert.Len(t, near, 4)
}
