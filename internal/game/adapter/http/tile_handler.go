package http

import (
	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/domain/repository"
	"territory-run/internal/game/usecase"
	"territory-run/internal/shared/logger"
	"territory-run/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
)

// TileHandler serves the read-only map views: proximity tile queries, the
// leaderboard and the capture-event feed.
type TileHandler struct {
	query  usecase.QueryUseCase
	events repository.CaptureEventStore
	log    logger.Logger
}

// NewTileHandler creates the tile HTTP handler. The event store may be nil;
// the feed endpoint then reports the feature as unavailable.
func NewTileHandler(query usecase.QueryUseCase, events repository.CaptureEventStore, log logger.Logger) *TileHandler {
	return &TileHandler{
		query:  query,
		events: events,
		log:    log.WithComponent("tile-handler"),
	}
}

// RegisterRoutes mounts the query endpoints. Authentication is optional
// here; an authenticated caller additionally gets the mine annotation.
func (h *TileHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/tiles", h.ListTiles)
	router.Get("/leaderboard", h.Leaderboard)
	router.Get("/events", h.CaptureEvents)
}

// tileView is one tile in a map response. Mine marks tiles owned by the
// requesting user and is always false for anonymous callers.
type tileView struct {
	Row     int     `json:"row"`
	Col     int     `json:"col"`
	MinLat  float64 `json:"minLat"`
	MinLng  float64 `json:"minLng"`
	MaxLat  float64 `json:"maxLat"`
	MaxLng  float64 `json:"maxLng"`
	OwnerID string  `json:"ownerId,omitempty"`
	Mine    bool    `json:"mine"`
}

// ListTiles handles GET /tiles: tiles around a coordinate.
func (h *TileHandler) ListTiles(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat", 0)
	lng := c.QueryFloat("lng", 0)
	radiusKm := c.QueryFloat("radiusKm", 0)
	limit := c.QueryInt("limit", 0)

	tiles, err := h.query.TilesNear(c.UserContext(), lat, lng, radiusKm, limit)
	if err != nil {
		return writeError(c, err)
	}

	// Best effort: anonymous callers simply get mine=false everywhere.
	userID, _ := utils.GetUserIDFromContext(c.UserContext())

	views := make([]tileView, len(tiles))
	for i, tile := range tiles {
		views[i] = tileView{
			Row:     tile.Row,
			Col:     tile.Col,
			MinLat:  tile.MinLat,
			MinLng:  tile.MinLng,
			MaxLat:  tile.MaxLat,
			MaxLng:  tile.MaxLng,
			OwnerID: tile.OwnerID,
			Mine:    userID != "" && tile.OwnerID == userID,
		}
	}

	return c.JSON(fiber.Map{
		"tiles": views,
		"total": len(views),
	})
}

// Leaderboard handles GET /leaderboard.
func (h *TileHandler) Leaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	entries, err := h.query.Leaderboard(c.UserContext(), limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"leaderboard": entries,
		"total":       len(entries),
	})
}

type captureEventView struct {
	ResumeToken string             `json:"resumeToken"`
	Event       model.CaptureEvent `json:"event"`
}

// CaptureEvents handles GET /events: the durable capture feed for clients
// catching up after missing live broadcasts.
func (h *TileHandler) CaptureEvents(c *fiber.Ctx) error {
	if h.events == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "event feed is not configured",
		})
	}

	since := c.Query("since")
	count := c.QueryInt("count", 0)

	stored, err := h.events.EventsSince(c.UserContext(), since, count)
	if err != nil {
		return writeError(c, err)
	}

	views := make([]captureEventView, len(stored))
	for i, s := range stored {
		views[i] = captureEventView{ResumeToken: s.ResumeToken, Event: s.Event}
	}

	return c.JSON(fiber.Map{
		"events": views,
		"total":  len(views),
	})
}
