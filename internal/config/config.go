package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Env string

const (
	EnvProd Env = "prod"
	EnvDev  Env = "dev"
)

func (e Env) IsValid() bool {
	switch e {
	case EnvProd, EnvDev:
		return true
	}
	return false
}

type StoreBackend string

const (
	StoreRedis    StoreBackend = "redis"
	StorePostgres StoreBackend = "postgres"
	StoreMemory   StoreBackend = "memory"
)

func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreRedis, StorePostgres, StoreMemory:
		return true
	}
	return false
}

type Config struct {
	APIServerHost string `env:"API_SERVER_HOST"`
	APIServerPort string `env:"API_SERVER_PORT" envDefault:"8080"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	PostgresURL   string `env:"POSTGRES_URL"`
	Env           Env    `env:"ENV" envDefault:"prod"`

	StoreBackend               StoreBackend `env:"STORE_BACKEND" envDefault:"redis"`
	LocationsKey               string       `env:"LOCATIONS_KEY" envDefault:"my_locations"`
	LocationsStrictCoordinates bool         `env:"LOCATIONS_STRICT_COORDINATES" envDefault:"false"`

	// PathSource is either an http(s) URL or a local JSON/YAML file.
	PathSource       string        `env:"PATH_SOURCE,notEmpty"`
	PathFetchTimeout time.Duration `env:"PATH_FETCH_TIMEOUT" envDefault:"7s"`

	PlaybackStep            float64       `env:"PLAYBACK_STEP" envDefault:"0.015"`
	PlaybackFrameInterval   time.Duration `env:"PLAYBACK_FRAME_INTERVAL" envDefault:"16ms"`
	PlaybackCommandsChannel string        `env:"PLAYBACK_COMMANDS_CHANNEL"`
}

// New loads the configuration from the environment. A .env file in the
// working directory is applied first when present; variables already set
// in the environment win.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.Env.IsValid() {
		return fmt.Errorf("invalid env variable (must be 'prod' or 'dev')")
	}
	if !c.StoreBackend.IsValid() {
		return fmt.Errorf("invalid store backend %q (must be 'redis', 'postgres' or 'memory')", c.StoreBackend)
	}
	if c.StoreBackend == StorePostgres && c.PostgresURL == "" {
		return errors.New("POSTGRES_URL is required for the postgres store backend")
	}
	if c.PlaybackStep <= 0 || c.PlaybackStep > 1 {
		return fmt.Errorf("invalid playback step %v (must be in (0, 1])", c.PlaybackStep)
	}
	if c.PlaybackFrameInterval <= 0 {
		return fmt.Errorf("invalid playback frame interval %v", c.PlaybackFrameInterval)
	}
	return nil
}

// NeedsRedis reports whether any configured component talks to redis.
func (c *Config) NeedsRedis() bool {
	return c.StoreBackend == StoreRedis || c.PlaybackCommandsChannel != ""
}
