package game

import (
	"context"
	"fmt"

	httpadapter "territory-run/internal/game/adapter/http"
	"territory-run/internal/game/adapter/notifier"
	redispersistence "territory-run/internal/game/adapter/persistence"
	mongodbpersistence "territory-run/internal/game/adapter/persistence/mongodb"
	"territory-run/internal/game/config"
	"territory-run/internal/game/domain/client"
	"territory-run/internal/game/domain/geo"
	"territory-run/internal/game/domain/model"
	"territory-run/internal/game/domain/repository"
	"territory-run/internal/game/domain/service"
	"territory-run/internal/game/usecase"
	"territory-run/internal/shared/eventbus"
	"territory-run/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// GameModule is the territory capture engine: tile grid, capture
// transactions, ownership queries and live updates.
type GameModule struct {
	Config          *config.GameConfig
	AuthClient      client.AuthClient
	Grid            *geo.Grid
	TileStore       repository.TileStore
	RunRepo         repository.RunRepository
	CaptureUsecase  usecase.CaptureUseCase
	QueryUsecase    usecase.QueryUseCase
	RealtimeUsecase usecase.RealtimeUseCase
	EventStore      repository.CaptureEventStore
	Notifier        client.Notifier
	EventBus        *eventbus.EventBus
	Logger          logger.Logger

	// Redis components for the durable event feed and leaderboard cache
	RedisClient *redis.Client

	zapLogger *zap.Logger
}

// NewGameModule creates and wires the engine. The Redis client may be nil;
// the module then runs without the event feed and leaderboard cache, which
// degrades queries but never captures.
func NewGameModule(
	cfg *config.GameConfig,
	db *mongo.Database,
	redisClient *redis.Client,
	authClient client.AuthClient,
	log logger.Logger,
	zapLog *zap.Logger,
) (*GameModule, error) {
	if cfg == nil {
		cfg = config.DefaultGameConfig()
	}
	if zapLog == nil {
		zapLog = zap.NewNop()
	}

	grid := geo.NewGrid(cfg.GridConfig())
	validator := service.NewPathValidator(cfg.MaxSpeedMS)
	bus := eventbus.NewEventBus(log)

	tileStore, err := mongodbpersistence.NewMongoTileStore(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile store: %w", err)
	}
	runRepo, err := mongodbpersistence.NewMongoRunRepository(db, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create run repository: %w", err)
	}

	var (
		eventStore repository.CaptureEventStore
		cache      repository.LeaderboardCache
	)
	if redisClient != nil {
		eventStore = redispersistence.NewRedisCaptureEventStore(redisClient, cfg.Redis.StreamMaxLength, log)
		cache = redispersistence.NewRedisLeaderboardCache(redisClient, redispersistence.DefaultLeaderboardTTL, log)
	} else {
		log.Warn("Redis client not configured, event feed and leaderboard cache disabled")
	}

	captureUC := usecase.NewCaptureUseCase(grid, validator, tileStore, runRepo, bus, log)
	queryUC := usecase.NewQueryUseCase(grid, tileStore, cache, authClient, log)
	realtimeUC := usecase.NewRealtimeUseCase(bus, cfg.Realtime.ClientSendChannelBuffer, zapLog)

	push := notifier.NewPushNotifier(authClient, cfg.Push, log)

	module := &GameModule{
		Config:          cfg,
		AuthClient:      authClient,
		Grid:            grid,
		TileStore:       tileStore,
		RunRepo:         runRepo,
		CaptureUsecase:  captureUC,
		QueryUsecase:    queryUC,
		RealtimeUsecase: realtimeUC,
		EventStore:      eventStore,
		Notifier:        push,
		EventBus:        bus,
		Logger:          log.WithComponent("game-module"),
		RedisClient:     redisClient,
		zapLogger:       zapLog,
	}

	module.subscribeEventHandlers()
	return module, nil
}

// subscribeEventHandlers wires the capture side effects: durable event feed
// and dispossession push notifications. All handlers run on fire-and-forget
// publishes, so a failing side effect never reaches the capture transaction.
func (m *GameModule) subscribeEventHandlers() {
	if m.EventStore != nil {
		m.EventBus.Subscribe(eventbus.EventTypeTilesCaptured, func(ctx context.Context, event eventbus.Event) error {
			capture, ok := event.Data().(model.CaptureEvent)
			if !ok {
				return nil
			}
			return m.EventStore.Append(ctx, capture)
		})
	}

	m.EventBus.Subscribe(eventbus.EventTypeOwnersDispossessed, func(ctx context.Context, event eventbus.Event) error {
		dispossessed, ok := event.Data().(usecase.DispossessedEvent)
		if !ok || len(dispossessed.OwnerIDs) == 0 {
			return nil
		}
		m.Notifier.Notify(ctx, dispossessed.OwnerIDs,
			"Territory lost",
			"Another runner captured part of your territory.",
			map[string]string{"byUserId": dispossessed.ByUserID},
		)
		return nil
	})
}

// RegisterRoutes registers the engine's HTTP routes under /api/v1 and the
// WebSocket listen endpoint.
func (m *GameModule) RegisterRoutes(router fiber.Router) {
	middleware := httpadapter.NewMiddleware(m.AuthClient)

	api := router.Group("/api/v1")

	runHandler := httpadapter.NewRunHandler(m.CaptureUsecase, m.Logger)
	runHandler.RegisterRoutes(api.Group("/", middleware.RequireAuth()))

	tileHandler := httpadapter.NewTileHandler(m.QueryUsecase, m.EventStore, m.Logger)
	tileHandler.RegisterRoutes(api.Group("/", middleware.OptionalAuth()))

	wsHandler := httpadapter.NewWebSocketHandler(m.RealtimeUsecase, m.zapLogger)
	wsHandler.RegisterRoutes(router.Group("/", middleware.RequireAuth()))

	m.Logger.Info("Game HTTP routes and WebSocket handler registered")
}

// StartRealtimeServices starts background services for live updates. The
// in-memory broadcaster subscribes itself on construction, so nothing extra
// runs here yet.
func (m *GameModule) StartRealtimeServices() {
	m.Logger.Infof("Realtime services ready, %d subscribers connected", m.RealtimeUsecase.SubscriberCount())
}

// Stop gracefully shuts down the game module.
func (m *GameModule) Stop() error {
	m.Logger.Info("Stopping game module")
	return nil
}
