package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"territory-run/internal/game/domain/model"
	"territory-run/internal/shared/eventbus"

	"go.uber.org/zap"
)

// CaptureMessage is the wire envelope pushed to connected clients.
type CaptureMessage struct {
	Type string             `json:"type"`
	Data model.CaptureEvent `json:"data"`
}

// RealtimeUseCase fans capture events out to connected websocket clients so
// they can refresh their map without polling. Delivery is best-effort: a
// client whose send buffer is full misses the event, and no acknowledgment
// is tracked.
type RealtimeUseCase interface {
	Subscribe(subscriberID string) (<-chan []byte, error)
	Unsubscribe(subscriberID string)
	BroadcastCapture(ctx context.Context, event model.CaptureEvent)
	SubscriberCount() int
}

type realtimeUseCase struct {
	mu          sync.RWMutex
	subscribers map[string]chan []byte
	bufferSize  int
	log         *zap.Logger
}

// NewRealtimeUseCase creates the broadcaster and registers it on the event
// bus for completed captures.
func NewRealtimeUseCase(bus eventbus.EventBusInterface, bufferSize int, log *zap.Logger) RealtimeUseCase {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	uc := &realtimeUseCase{
		subscribers: make(map[string]chan []byte),
		bufferSize:  bufferSize,
		log:         log,
	}

	bus.Subscribe(eventbus.EventTypeTilesCaptured, func(ctx context.Context, event eventbus.Event) error {
		capture, ok := event.Data().(model.CaptureEvent)
		if !ok {
			uc.log.Warn("unexpected payload on capture event",
				zap.String("event_type", event.Type()))
			return nil
		}
		uc.BroadcastCapture(ctx, capture)
		return nil
	})

	return uc
}

func (uc *realtimeUseCase) Subscribe(subscriberID string) (<-chan []byte, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, exists := uc.subscribers[subscriberID]; exists {
		return nil, fmt.Errorf("subscriber %s already registered", subscriberID)
	}
	ch := make(chan []byte, uc.bufferSize)
	uc.subscribers[subscriberID] = ch

	uc.log.Debug("subscriber registered",
		zap.String("subscriber_id", subscriberID),
		zap.Int("subscriber_count", len(uc.subscribers)))
	return ch, nil
}

func (uc *realtimeUseCase) Unsubscribe(subscriberID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	ch, ok := uc.subscribers[subscriberID]
	if !ok {
		return
	}
	delete(uc.subscribers, subscriberID)
	close(ch)

	uc.log.Debug("subscriber removed",
		zap.String("subscriber_id", subscriberID),
		zap.Int("subscriber_count", len(uc.subscribers)))
}

// BroadcastCapture pushes one capture event to every subscriber without
// blocking. Slow clients drop the event instead of stalling the broadcast.
func (uc *realtimeUseCase) BroadcastCapture(_ context.Context, event model.CaptureEvent) {
	payload, err := json.Marshal(CaptureMessage{Type: model.CaptureEventType, Data: event})
	if err != nil {
		uc.log.Error("failed to marshal capture message", zap.Error(err))
		return
	}

	uc.mu.RLock()
	defer uc.mu.RUnlock()

	dropped := 0
	for id, ch := range uc.subscribers {
		select {
		case ch <- payload:
		default:
			dropped++
			uc.log.Debug("dropped capture event for slow subscriber",
				zap.String("subscriber_id", id))
		}
	}

	uc.log.Debug("capture event broadcast",
		zap.String("user_id", event.UserID),
		zap.Int("tile_count", event.TileCount),
		zap.Int("subscribers", len(uc.subscribers)),
		zap.Int("dropped", dropped))
}

func (uc *realtimeUseCase) SubscriberCount() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.subscribers)
}
