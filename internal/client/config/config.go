package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the admin CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the ledger gRPC endpoint.
//   - SecretKey: shared secret used to mint admin tokens for privileged calls.
//   - TokenTTL: lifetime of a minted admin token.
//   - RequestTimeout: per-call deadline; zero disables it.
type Config struct {
	ServerEndpointAddr string        `env:"MINERLEDGER_ADDR"`
	SecretKey          string        `env:"ADD_SPEED_SECRET"`
	TokenTTL           time.Duration `env:"MINERLEDGER_TOKEN_TTL"`
	RequestTimeout     time.Duration `env:"MINERLEDGER_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.TokenTTL = 5 * time.Minute
	c.RequestTimeout = 10 * time.Second
}

// Load applies defaults, then the optional file at path, then the
// environment. Command-line flags are applied by the caller on top.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
