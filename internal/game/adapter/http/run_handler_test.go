package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	httpadapter "territory-run/internal/game/adapter/http"
	"territory-run/internal/game/domain/geo"
	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/usecase"
	apperrors "territory-run/internal/shared/errors"
	"territory-run/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth validates the fixed token "valid-token" as user "runner-1".
type stubAuth struct{}

func (stubAuth) ValidateToken(_ context.Context, token string) (string, error) {
	if token == "valid-token" {
		return "runner-1", nil
	}
	return "", errors.New("invalid token")
}

func (stubAuth) ResolveUsernames(_ context.Context, ids []string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (stubAuth) FCMTokens(_ context.Context, ids []string) (map[string][]string, error) {
	return map[string][]string{}, nil
}

// mockCapture returns canned results per method.
type mockCapture struct {
	submitResult *model.CaptureResult
	submitErr    error
	run          *model.Run
	runErr       error
	runs         []model.Run
	listErr      error
}

func (m *mockCapture) SubmitRun(_ context.Context, userID string, path []model.PathPoint) (*model.CaptureResult, error) {
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	result := *m.submitResult
	result.UserID = userID
	return &result, nil
}

func (m *mockCapture) GetRun(_ context.Context, id string) (*model.Run, error) {
	return m.run, m.runErr
}

func (m *mockCapture) ListUserRuns(_ context.Context, userID string, limit int) ([]model.Run, error) {
	return m.runs, m.listErr
}

var _ usecase.CaptureUseCase = (*mockCapture)(nil)

func newRunTestApp(capture usecase.CaptureUseCase) *fiber.App {
	app := fiber.New()
	middleware := httpadapter.NewMiddleware(stubAuth{})
	handler := httpadapter.NewRunHandler(capture, logger.NewLogger())
	handler.RegisterRoutes(app.Group("/api/v1", middleware.RequireAuth()))
	return app
}

func authedRequest(method, target string, body []byte) *nethttp.Request {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer valid-token")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *nethttp.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestSubmitRun_ReturnsCaptureResult(t *testing.T) {
	capture := &mockCapture{
		submitResult: &model.CaptureResult{
			RunID:              "run-1",
			CapturedCells:      []geo.Cell{{Row: 10, Col: 20}},
			CapturedTileCount:  1,
			DispossessedOwners: []string{"bob"},
		},
	}
	app := newRunTestApp(capture)

	payload, _ := json.Marshal(fiber.Map{
		"path": []model.PathPoint{{Lat: 35.0, Lng: 135.0, T: 1000}},
	})
	resp, err := app.Test(authedRequest(nethttp.MethodPost, "/api/v1/runs", payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "run-1", body["runId"])
	assert.Equal(t, "runner-1", body["userId"])
	assert.Equal(t, float64(1), body["capturedTileCount"])
	assert.Equal(t, []any{"bob"}, body["dispossessedOwners"])
}

func TestSubmitRun_RequiresAuth(t *testing.T) {
	app := newRunTestApp(&mockCapture{})

	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/runs", bytes.NewReader([]byte(`{"path":[]}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(nethttp.MethodPost, "/api/v1/runs", bytes.NewReader([]byte(`{"path":[]}`)))
	req.Header.Set("Authorization", "Bearer wrong-token")
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSubmitRun_SpeedViolationIsBadRequest(t *testing.T) {
	capture := &mockCapture{
		submitErr: apperrors.NewSpeedViolationError(2, 31.7, 15.0),
	}
	app := newRunTestApp(capture)

	payload, _ := json.Marshal(fiber.Map{
		"path": []model.PathPoint{
			{Lat: 35.0, Lng: 135.0, T: 1000},
			{Lat: 35.1, Lng: 135.0, T: 2000},
		},
	})
	resp, err := app.Test(authedRequest(nethttp.MethodPost, "/api/v1/runs", payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "SPEED_VIOLATION", body["code"])
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), details["segment_index"])
	assert.Equal(t, 31.7, details["speed_ms"])
}

func TestSubmitRun_StoreFailureIsServiceUnavailable(t *testing.T) {
	capture := &mockCapture{
		submitErr: apperrors.NewStoreUnavailableError(errors.New("connection reset")),
	}
	app := newRunTestApp(capture)

	payload, _ := json.Marshal(fiber.Map{
		"path": []model.PathPoint{{Lat: 35.0, Lng: 135.0, T: 1000}},
	})
	resp, err := app.Test(authedRequest(nethttp.MethodPost, "/api/v1/runs", payload))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "STORE_UNAVAILABLE", body["code"])
	// Store internals never leak to clients.
	assert.NotContains(t, fmt.Sprint(body["error"]), "connection reset")
}

func TestSubmitRun_MalformedBody(t *testing.T) {
	app := newRunTestApp(&mockCapture{})

	resp, err := app.Test(authedRequest(nethttp.MethodPost, "/api/v1/runs", []byte("{not json")))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetRun_NotFound(t *testing.T) {
	capture := &mockCapture{runErr: apperrors.ErrRunNotFound}
	app := newRunTestApp(capture)

	resp, err := app.Test(authedRequest(nethttp.MethodGet, "/api/v1/runs/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListMyRuns(t *testing.T) {
	capture := &mockCapture{
		runs: []model.Run{
			{ID: "run-2", UserID: "runner-1"},
			{ID: "run-1", UserID: "runner-1"},
		},
	}
	app := newRunTestApp(capture)

	resp, err := app.Test(authedRequest(nethttp.MethodGet, "/api/v1/runs/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["total"])
	runs, ok := body["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 2)
	first, ok := runs[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-2", first["id"])
}
