package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"territory-run/internal/auth"
	authconfig "territory-run/internal/auth/config"
	"territory-run/internal/game"
	"territory-run/internal/game/adapter/authclient"
	gameconfig "territory-run/internal/game/config"
	"territory-run/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Container wires the application modules with proper lifecycle management.
type Container struct {
	mu sync.RWMutex

	// Module instances
	AuthModule *auth.AuthModule
	GameModule *game.GameModule

	// Database connections
	MongoDB     *mongo.Database
	RedisClient *redis.Client

	// Configuration
	AuthConfig *authconfig.Config
	GameConfig *gameconfig.GameConfig

	// Logger
	Logger logger.Logger
}

// NewContainer creates a new DI container.
func NewContainer() *Container {
	return &Container{}
}

// InitializeAuth initializes the authentication module.
func (c *Container) InitializeAuth(mongoDB *mongo.Database, cfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.MongoDB = mongoDB
	c.AuthConfig = cfg

	authModule, err := auth.NewAuthModule(mongoDB, cfg)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}

	c.AuthModule = authModule
	return nil
}

// InitializeGame initializes the territory capture module with auth
// integration. Must run after InitializeAuth.
func (c *Container) InitializeGame(gameDB *mongo.Database, cfg *gameconfig.GameConfig, zapLog *zap.Logger) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.AuthModule == nil {
		return fmt.Errorf("auth module must be initialized before game module")
	}
	if gameDB == nil {
		return fmt.Errorf("mongodb must be initialized before game module")
	}
	if c.Logger == nil {
		c.Logger = logger.NewLogger()
	}

	c.GameConfig = cfg
	c.RedisClient = gameconfig.NewRedisClient(&cfg.Redis)

	// Redis is optional infrastructure: without it the engine loses the
	// event feed and the leaderboard cache, not captures.
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.RedisClient.Ping(pingCtx).Err(); err != nil {
		c.Logger.Warnf("Redis unreachable at %s, continuing without it: %v", cfg.Redis.GetAddr(), err)
		c.RedisClient = nil
	}

	authClient := authclient.New(c.AuthModule.GetUsecase())

	gameModule, err := game.NewGameModule(cfg, gameDB, c.RedisClient, authClient, c.Logger, zapLog)
	if err != nil {
		return fmt.Errorf("failed to create game module: %w", err)
	}

	c.GameModule = gameModule
	return nil
}

// GetAuthModule returns the auth module instance.
func (c *Container) GetAuthModule() *auth.AuthModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.AuthModule
}

// GetGameModule returns the game module instance.
func (c *Container) GetGameModule() *game.GameModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.GameModule
}

// HealthCheck verifies the container's backing services.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.MongoDB != nil {
		if err := c.MongoDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongodb health check failed: %w", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis health check failed: %w", err)
		}
	}
	return nil
}

// Cleanup shuts modules down in reverse order of initialization.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.GameModule != nil {
		if err := c.GameModule.Stop(); err != nil {
			errs = append(errs, err)
		}
		c.GameModule = nil
	}
	if c.AuthModule != nil {
		if err := c.AuthModule.Stop(); err != nil {
			errs = append(errs, err)
		}
		c.AuthModule = nil
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, err)
		}
		c.RedisClient = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close gracefully shuts down all services in the container with timeout.
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.Cleanup(ctx)
}
