package http

import (
	"context"
	"time"

	"territory-run/internal/game/usecase"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebSocketHandler manages WebSocket connections for live capture updates.
// Clients connect to the listen endpoint and receive tiles_updated messages
// whenever a capture transaction completes; there is no client-to-server
// protocol beyond the connection itself.
type WebSocketHandler struct {
	realtimeUC usecase.RealtimeUseCase
	log        *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(rtuc usecase.RealtimeUseCase, log *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		realtimeUC: rtuc,
		log:        log,
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *WebSocketHandler) RegisterRoutes(router fiber.Router) {
	wsGroup := router.Group("/ws/v1")

	// Middleware to ensure it's a WebSocket upgrade request
	wsGroup.Use("/listen", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	wsGroup.Get("/listen", websocket.New(h.handleConnection))
}

// handleConnection runs for the lifetime of one WebSocket connection.
func (h *WebSocketHandler) handleConnection(conn *websocket.Conn) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	subscriberID := uuid.NewString()

	events, err := h.realtimeUC.Subscribe(subscriberID)
	if err != nil {
		h.log.Error("websocket subscription failed",
			zap.String("subscriberID", subscriberID),
			zap.Error(err))
		conn.Close()
		return
	}

	h.log.Info("websocket connection established",
		zap.String("subscriberID", subscriberID))

	defer func() {
		h.realtimeUC.Unsubscribe(subscriberID)
		h.log.Info("websocket connection closed",
			zap.String("subscriberID", subscriberID))
	}()

	// Writer: forward broadcast payloads to this client.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					h.log.Debug("websocket write failed",
						zap.String("subscriberID", subscriberID),
						zap.Error(err))
					cancelCtx()
					return
				}
			}
		}
	}()

	// Reader: drain incoming frames to detect disconnection.
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.log.Error("websocket error",
						zap.String("subscriberID", subscriberID),
						zap.Error(err))
				}
				return
			}
		}
	}
}
