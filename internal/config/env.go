package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerEnv is the process configuration of the server binary.
type ServerEnv struct {
	HTTPAddr      string        `env:"DICESIM_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr      string        `env:"DICESIM_GRPC_ADDR" envDefault:":9090"`
	ConfigDir     string        `env:"DICESIM_CONFIG_DIR" envDefault:"config"`
	DBPath        string        `env:"DICESIM_DB_PATH" envDefault:"dicesim.db"`
	LogLevel      string        `env:"DICESIM_LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"DICESIM_LOG_FORMAT" envDefault:"text"`
	WatchInterval time.Duration `env:"DICESIM_WATCH_INTERVAL" envDefault:"2s"`
	MaxTrials     int           `env:"DICESIM_MAX_TRIALS" envDefault:"1000000"`
	MaxOutcome    int           `env:"DICESIM_MAX_OUTCOME" envDefault:"10000"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerEnv parses ServerEnv from the process environment.
func LoadServerEnv() (ServerEnv, error) {
	var cfg ServerEnv
	if err := ParseEnv(&cfg); err != nil {
		return ServerEnv{}, err
	}
	if cfg.MaxTrials <= 0 {
		return ServerEnv{}, fmt.Errorf("%w: DICESIM_MAX_TRIALS must be >= 1", ErrInvalidConfig)
	}
	return cfg, nil
}
