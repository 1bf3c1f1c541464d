package http_test

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "territory-run/internal/game/adapter/http"
	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/domain/repository"
	"territory-run/internal/game/usecase"
	"territory-run/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockQuery struct {
	tiles   []model.Tile
	entries []model.LeaderboardEntry
	err     error
}

func (m *mockQuery) TilesNear(_ context.Context, lat, lng, radiusKm float64, limit int) ([]model.Tile, error) {
	return m.tiles, m.err
}

func (m *mockQuery) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return m.entries, m.err
}

var _ usecase.QueryUseCase = (*mockQuery)(nil)

type memEventFeed struct {
	events []repository.StoredCaptureEvent
}

func (f *memEventFeed) Append(_ context.Context, event model.CaptureEvent) error {
	token := time.Now().Format("20060102150405")
	f.events = append(f.events, repository.StoredCaptureEvent{ResumeToken: token, Event: event})
	return nil
}

func (f *memEventFeed) EventsSince(_ context.Context, resumeToken string, count int) ([]repository.StoredCaptureEvent, error) {
	start := 0
	for i, stored := range f.events {
		if stored.ResumeToken == resumeToken {
			start = i + 1
		}
	}
	out := f.events[start:]
	if count > 0 && count < len(out) {
		out = out[:count]
	}
	return out, nil
}

func (f *memEventFeed) Len(_ context.Context) (int64, error) {
	return int64(len(f.events)), nil
}

func newTileTestApp(query usecase.QueryUseCase, events repository.CaptureEventStore) *fiber.App {
	app := fiber.New()
	middleware := httpadapter.NewMiddleware(stubAuth{})
	handler := httpadapter.NewTileHandler(query, events, logger.NewLogger())
	handler.RegisterRoutes(app.Group("/api/v1", middleware.OptionalAuth()))
	return app
}

func TestListTiles_AnonymousHasNoMineAnnotation(t *testing.T) {
	query := &mockQuery{
		tiles: []model.Tile{
			{Row: 1, Col: 2, OwnerID: "runner-1"},
			{Row: 1, Col: 3, OwnerID: "someone-else"},
			{Row: 1, Col: 4},
		},
	}
	app := newTileTestApp(query, nil)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/tiles?lat=35.0&lng=135.0", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(3), body["total"])
	tiles, ok := body["tiles"].([]any)
	require.True(t, ok)
	for _, raw := range tiles {
		tile, ok := raw.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, false, tile["mine"])
	}
}

func TestListTiles_AuthenticatedMarksOwnTiles(t *testing.T) {
	query := &mockQuery{
		tiles: []model.Tile{
			{Row: 1, Col: 2, OwnerID: "runner-1"},
			{Row: 1, Col: 3, OwnerID: "someone-else"},
			{Row: 1, Col: 4},
		},
	}
	app := newTileTestApp(query, nil)

	req := httptest.NewRequest(nethttp.MethodGet, "/api/v1/tiles?lat=35.0&lng=135.0", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	tiles, ok := body["tiles"].([]any)
	require.True(t, ok)
	require.Len(t, tiles, 3)

	mine := make([]bool, 0, 3)
	for _, raw := range tiles {
		tile := raw.(map[string]any)
		mine = append(mine, tile["mine"].(bool))
	}
	assert.Equal(t, []bool{true, false, false}, mine)
}

func TestLeaderboard(t *testing.T) {
	query := &mockQuery{
		entries: []model.LeaderboardEntry{
			{Rank: 1, OwnerID: "u1", Username: "amy", TileCount: 42},
			{Rank: 2, OwnerID: "u2", Username: "bob", TileCount: 17},
		},
	}
	app := newTileTestApp(query, nil)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/v1/leaderboard?limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["total"])
	entries, ok := body["leaderboard"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "amy", first["username"])
	assert.Equal(t, float64(42), first["tileCount"])
}

func TestCaptureEvents_UnconfiguredFeed(t *testing.T) {
	app := newTileTestApp(&mockQuery{}, nil)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/v1/events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestCaptureEvents_ReturnsResumeTokens(t *testing.T) {
	feed := &memEventFeed{
		events: []repository.StoredCaptureEvent{
			{ResumeToken: "1-0", Event: model.CaptureEvent{UserID: "u1", TileCount: 3}},
			{ResumeToken: "2-0", Event: model.CaptureEvent{UserID: "u2", TileCount: 5}},
		},
	}
	app := newTileTestApp(&mockQuery{}, feed)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/v1/events", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["total"])
	events, ok := body["events"].([]any)
	require.True(t, ok)
	require.Len(t, events, 2)
	first := events[0].(map[string]any)
	assert.Equal(t, "1-0", first["resumeToken"])

	// Resume from the first token: only the second event comes back.
	resp, err = app.Test(httptest.NewRequest(nethttp.MethodGet, "/api/v1/events?since=1-0", nil))
	require.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(1), body["total"])
}
