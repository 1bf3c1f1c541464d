package usecase_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/usecase"
	"territory-run/internal/shared/eventbus"
	"territory-run/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRealtimeFixture(buffer int) (usecase.RealtimeUseCase, *eventbus.EventBus) {
	bus := eventbus.NewEventBus(logger.NewLogger())
	return usecase.NewRealtimeUseCase(bus, buffer, zap.NewNop()), bus
}

func TestRealtime_SubscribeAndBroadcast(t *testing.T) {
	rt, _ := newRealtimeFixture(4)

	ch, err := rt.Subscribe("client-1")
	require.NoError(t, err)
	assert.Equal(t, 1, rt.SubscriberCount())

	rt.BroadcastCapture(context.Background(), model.CaptureEvent{
		UserID:     "alice",
		TileCount:  7,
		OccurredAt: time.Now().UTC(),
	})

	select {
	case payload := <-ch:
		var msg usecase.CaptureMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "tiles_updated", msg.Type)
		assert.Equal(t, "alice", msg.Data.UserID)
		assert.Equal(t, 7, msg.Data.TileCount)
	case <-time.After(time.Second):
		t.Fatal("expected a capture message")
	}
}

func TestRealtime_DuplicateSubscriberRejected(t *testing.T) {
	rt, _ := newRealtimeFixture(4)

	_, err := rt.Subscribe("client-1")
	require.NoError(t, err)
	_, err = rt.Subscribe("client-1")
	assert.Error(t, err)
}

func TestRealtime_UnsubscribeClosesChannel(t *testing.T) {
	rt, _ := newRealtimeFixture(4)

	ch, err := rt.Subscribe("client-1")
	require.NoError(t, err)
	rt.Unsubscribe("client-1")
	assert.Equal(t, 0, rt.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// Idempotent.
	rt.Unsubscribe("client-1")
}

func TestRealtime_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	rt, _ := newRealtimeFixture(1)

	ch, err := rt.Subscribe("client-1")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			rt.BroadcastCapture(context.Background(), model.CaptureEvent{UserID: "alice", TileCount: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}

	// Only the buffered event survives.
	assert.Len(t, ch, 1)
}

func TestRealtime_ReceivesEventsFromBus(t *testing.T) {
	rt, bus := newRealtimeFixture(4)

	ch, err := rt.Subscribe("client-1")
	require.NoError(t, err)

	err = bus.Publish(context.Background(), eventbus.NewBasicEvent(
		eventbus.EventTypeTilesCaptured,
		model.CaptureEvent{UserID: "bob", TileCount: 3, OccurredAt: time.Now().UTC()},
	))
	require.NoError(t, err)

	select {
	case payload := <-ch:
		var msg usecase.CaptureMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "bob", msg.Data.UserID)
	case <-time.After(time.Second):
		t.Fatal("expected the bus event to reach the subscriber")
	}
}
