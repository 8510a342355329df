package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/minerledger/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of Config. Durations use timex.Duration so
// they may be written as "30s" or as integer nanoseconds.
type FileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	SecretKey          string         `json:"secret_key" yaml:"secret_key"`
	TokenTTL           timex.Duration `json:"token_ttl" yaml:"token_ttl"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// loadFile overlays cfg with the file at path. Keys missing from the file
// keep their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := FileConfig{
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		SecretKey:          cfg.SecretKey,
		TokenTTL:           timex.Duration{Duration: cfg.TokenTTL},
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	cfg.SecretKey = fc.SecretKey
	cfg.TokenTTL = fc.TokenTTL.Duration
	cfg.RequestTimeout = fc.RequestTimeout.Duration
	return nil
}
