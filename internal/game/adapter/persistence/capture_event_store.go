package persistence

import (
	"context"
	"errors"
	"strconv"
	"time"

	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/domain/repository"
	"territory-run/internal/shared/logger"

	"github.com/redis/go-redis/v9"
)

// captureStream is the single Redis Stream holding the capture-event feed.
const captureStream = "territory:capture-events"

const maxEventsPerRead = 1000

// RedisCaptureEventStore implements CaptureEventStore on Redis Streams. The
// stream is capped at a configured length; trimming happens on append so the
// feed never grows unbounded.
type RedisCaptureEventStore struct {
	client    *redis.Client
	maxLength int64
	log       logger.Logger
}

// NewRedisCaptureEventStore creates a capture-event store over the given
// Redis client.
func NewRedisCaptureEventStore(client *redis.Client, maxLength int64, log logger.Logger) *RedisCaptureEventStore {
	if maxLength <= 0 {
		maxLength = 10000
	}
	return &RedisCaptureEventStore{
		client:    client,
		maxLength: maxLength,
		log:       log.WithComponent("capture-event-store"),
	}
}

func (s *RedisCaptureEventStore) Append(ctx context.Context, event model.CaptureEvent) error {
	_, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: captureStream,
		MaxLen: s.maxLength,
		Approx: true,
		Values: map[string]interface{}{
			"userId":     event.UserID,
			"tileCount":  event.TileCount,
			"occurredAt": event.OccurredAt.UnixMilli(),
		},
	}).Result()
	if err != nil {
		s.log.WithContext(ctx).Errorf("Failed to append capture event to stream: %v", err)
		return err
	}
	return nil
}

func (s *RedisCaptureEventStore) EventsSince(ctx context.Context, resumeToken string, count int) ([]repository.StoredCaptureEvent, error) {
	if count <= 0 || count > maxEventsPerRead {
		count = maxEventsPerRead
	}
	lastID := "0"
	if resumeToken != "" {
		lastID = resumeToken
	}

	exists, err := s.client.Exists(ctx, captureStream).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return []repository.StoredCaptureEvent{}, nil
	}

	// Negative Block omits the BLOCK argument entirely; a caught-up reader
	// gets redis.Nil immediately instead of holding a pool connection.
	res, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{captureStream, lastID},
		Count:   int64(count),
		Block:   -1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []repository.StoredCaptureEvent{}, nil
		}
		s.log.WithContext(ctx).Errorf("Failed to read capture events: %v", err)
		return nil, err
	}

	events := make([]repository.StoredCaptureEvent, 0)
	for _, streamRes := range res {
		for _, msg := range streamRes.Messages {
			event, ok := parseCaptureMessage(msg)
			if !ok {
				s.log.WithContext(ctx).Warnf("Skipping malformed capture event %s", msg.ID)
				continue
			}
			events = append(events, repository.StoredCaptureEvent{
				ResumeToken: msg.ID,
				Event:       event,
			})
		}
	}
	return events, nil
}

func (s *RedisCaptureEventStore) Len(ctx context.Context) (int64, error) {
	length, err := s.client.XLen(ctx, captureStream).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return length, nil
}

func parseCaptureMessage(msg redis.XMessage) (model.CaptureEvent, bool) {
	event := model.CaptureEvent{}

	userID, ok := msg.Values["userId"].(string)
	if !ok || userID == "" {
		return event, false
	}
	event.UserID = userID

	if countStr, ok := msg.Values["tileCount"].(string); ok {
		if count, err := strconv.Atoi(countStr); err == nil {
			event.TileCount = count
		}
	}
	if tsStr, ok := msg.Values["occurredAt"].(string); ok {
		if ms, err := strconv.ParseInt(tsStr, 10, 64); err == nil {
			event.OccurredAt = time.UnixMilli(ms).UTC()
		}
	}
	return event, true
}
