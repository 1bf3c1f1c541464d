package config

import (
	"errors"

	"territory-run/internal/game/domain/geo"

	"github.com/caarlos0/env/v6"
)

// RealtimeConfig holds configuration specific to the live-update channel.
type RealtimeConfig struct {
	// WebSocketPath is the endpoint path for WebSocket connections.
	WebSocketPath string `env:"WEBSOCKET_PATH" envDefault:"/ws/v1/listen"`

	// ClientSendChannelBuffer is the buffer size for channels sending capture
	// events to WebSocket clients. Events for a client whose buffer is full
	// are dropped rather than blocking the broadcast.
	ClientSendChannelBuffer int `env:"CLIENT_SEND_CHANNEL_BUFFER" envDefault:"16"`
}

// PushConfig holds settings for the push-notification delivery channel.
// With an empty server key, push delivery is disabled and notifications are
// only logged.
type PushConfig struct {
	Endpoint  string `env:"FCM_ENDPOINT" envDefault:"https://fcm.googleapis.com/fcm/send"`
	ServerKey string `env:"FCM_SERVER_KEY" envDefault:""`
	TimeoutMS int    `env:"FCM_TIMEOUT_MS" envDefault:"5000"`
}

// GameConfig holds all configuration for the territory capture module.
type GameConfig struct {
	MongoDBURI   string `env:"MONGODB_URI"`
	DatabaseName string `env:"MONGODB_DATABASE" envDefault:"territory_run"`

	// Grid parameters: fixed process-wide constants, not per-tile state.
	// The defaults give a lazily materialized global grid with ~20 m cells
	// anchored at the southwest-corner sentinel.
	OriginLat      float64 `env:"GRID_ORIGIN_LAT" envDefault:"-90"`
	OriginLng      float64 `env:"GRID_ORIGIN_LNG" envDefault:"-180"`
	CellSizeDegLat float64 `env:"GRID_CELL_SIZE_DEG_LAT" envDefault:"0.00018"`
	CellSizeDegLng float64 `env:"GRID_CELL_SIZE_DEG_LNG" envDefault:"0.00018"`

	// MaxSpeedMS is the anti-cheat ceiling for consecutive path samples.
	MaxSpeedMS float64 `env:"MAX_SPEED_MS" envDefault:"15"`

	Realtime RealtimeConfig
	Redis    RedisConfig
	Push     PushConfig
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*GameConfig, error) {
	cfg := &GameConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load game configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Realtime); err != nil {
		return nil, errors.New("failed to load realtime configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Redis); err != nil {
		return nil, errors.New("failed to load redis configuration from environment: " + err.Error())
	}
	if err := env.Parse(&cfg.Push); err != nil {
		return nil, errors.New("failed to load push configuration from environment: " + err.Error())
	}

	if cfg.MongoDBURI == "" {
		return nil, errors.New("MONGODB_URI environment variable is not set")
	}
	if cfg.CellSizeDegLat <= 0 || cfg.CellSizeDegLng <= 0 {
		return nil, errors.New("grid cell size must be positive")
	}
	if cfg.MaxSpeedMS <= 0 {
		return nil, errors.New("max speed must be positive")
	}
	if cfg.Realtime.ClientSendChannelBuffer <= 0 {
		cfg.Realtime.ClientSendChannelBuffer = 16
	}

	return cfg, nil
}

// DefaultGameConfig returns a GameConfig with local-development defaults.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		MongoDBURI:     "mongodb://localhost:27017",
		DatabaseName:   "territory_run",
		OriginLat:      geo.DefaultOriginLat,
		OriginLng:      geo.DefaultOriginLng,
		CellSizeDegLat: geo.DefaultCellSizeDegLat,
		CellSizeDegLng: geo.DefaultCellSizeDegLng,
		MaxSpeedMS:     15,
		Realtime: RealtimeConfig{
			WebSocketPath:           "/ws/v1/listen",
			ClientSendChannelBuffer: 16,
		},
		Redis: *DefaultRedisConfig(),
		Push: PushConfig{
			Endpoint:  "https://fcm.googleapis.com/fcm/send",
			TimeoutMS: 5000,
		},
	}
}

// GridConfig derives the immutable grid parameterization.
func (c *GameConfig) GridConfig() geo.GridConfig {
	return geo.GridConfig{
		OriginLat:      c.OriginLat,
		OriginLng:      c.OriginLng,
		CellSizeDegLat: c.CellSizeDegLat,
		CellSizeDegLng: c.CellSizeDegLng,
	}
}
