package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/minerledger/internal/flagx"
	"github.com/dmitrijs2005/minerledger/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so files may say "10s" or give integer nanoseconds.
//
// The struct is pre-filled from the running Config before unmarshalling,
// so keys missing from the file keep their current values.
type FileConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP string `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`

	StoreBackend     string         `json:"store_backend" yaml:"store_backend"`
	DatabaseDSN      string         `json:"database_dsn" yaml:"database_dsn"`
	RedisAddr        string         `json:"redis_address" yaml:"redis_address"`
	RedisPassword    string         `json:"redis_password" yaml:"redis_password"`
	RedisDB          int            `json:"redis_db" yaml:"redis_db"`
	S3RootUser       string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region         string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3Prefix         string         `json:"s3_prefix" yaml:"s3_prefix"`
	StoreTimeout     timex.Duration `json:"store_timeout" yaml:"store_timeout"`
	StoreMaxAttempts int            `json:"store_max_attempts" yaml:"store_max_attempts"`

	SecretKey                  string         `json:"secret_key" yaml:"secret_key"`
	AdminTokenValidityDuration timex.Duration `json:"admin_token_validity_duration" yaml:"admin_token_validity_duration"`

	AccrualRateConstant  float64        `json:"accrual_rate_constant" yaml:"accrual_rate_constant"`
	RateIncreaseStep     float64        `json:"rate_increase_step" yaml:"rate_increase_step"`
	RateIncreaseCooldown timex.Duration `json:"rate_increase_cooldown" yaml:"rate_increase_cooldown"`

	ResetAt            string         `json:"reset_at" yaml:"reset_at"`
	ResetTimezone      string         `json:"reset_timezone" yaml:"reset_timezone"`
	ResetCheckInterval timex.Duration `json:"reset_check_interval" yaml:"reset_check_interval"`
	SweepPageSize      int            `json:"sweep_page_size" yaml:"sweep_page_size"`

	HTTPRequestsPerSecond float64 `json:"http_rps" yaml:"http_rps"`
	HTTPBurst             int     `json:"http_burst" yaml:"http_burst"`

	LogBackend string `json:"log_backend" yaml:"log_backend"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
}

func fileConfigFrom(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrGRPC:           c.EndpointAddrGRPC,
		EndpointAddrHTTP:           c.EndpointAddrHTTP,
		StoreBackend:               c.StoreBackend,
		DatabaseDSN:                c.DatabaseDSN,
		RedisAddr:                  c.RedisAddr,
		RedisPassword:              c.RedisPassword,
		RedisDB:                    c.RedisDB,
		S3RootUser:                 c.S3RootUser,
		S3RootPassword:             c.S3RootPassword,
		S3Bucket:                   c.S3Bucket,
		S3Region:                   c.S3Region,
		S3BaseEndpoint:             c.S3BaseEndpoint,
		S3Prefix:                   c.S3Prefix,
		StoreTimeout:               timex.Duration{Duration: c.StoreTimeout},
		StoreMaxAttempts:           c.StoreMaxAttempts,
		SecretKey:                  c.SecretKey,
		AdminTokenValidityDuration: timex.Duration{Duration: c.AdminTokenValidityDuration},
		AccrualRateConstant:        c.AccrualRateConstant,
		RateIncreaseStep:           c.RateIncreaseStep,
		RateIncreaseCooldown:       timex.Duration{Duration: c.RateIncreaseCooldown},
		ResetAt:                    c.ResetAt,
		ResetTimezone:              c.ResetTimezone,
		ResetCheckInterval:         timex.Duration{Duration: c.ResetCheckInterval},
		SweepPageSize:              c.SweepPageSize,
		HTTPRequestsPerSecond:      c.HTTPRequestsPerSecond,
		HTTPBurst:                  c.HTTPBurst,
		LogBackend:                 c.LogBackend,
		LogLevel:                   c.LogLevel,
	}
}

func (f *FileConfig) apply(c *Config) {
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.EndpointAddrHTTP = f.EndpointAddrHTTP
	c.StoreBackend = f.StoreBackend
	c.DatabaseDSN = f.DatabaseDSN
	c.RedisAddr = f.RedisAddr
	c.RedisPassword = f.RedisPassword
	c.RedisDB = f.RedisDB
	c.S3RootUser = f.S3RootUser
	c.S3RootPassword = f.S3RootPassword
	c.S3Bucket = f.S3Bucket
	c.S3Region = f.S3Region
	c.S3BaseEndpoint = f.S3BaseEndpoint
	c.S3Prefix = f.S3Prefix
	c.StoreTimeout = f.StoreTimeout.Duration
	c.StoreMaxAttempts = f.StoreMaxAttempts
	c.SecretKey = f.SecretKey
	c.AdminTokenValidityDuration = f.AdminTokenValidityDuration.Duration
	c.AccrualRateConstant = f.AccrualRateConstant
	c.RateIncreaseStep = f.RateIncreaseStep
	c.RateIncreaseCooldown = f.RateIncreaseCooldown.Duration
	c.ResetAt = f.ResetAt
	c.ResetTimezone = f.ResetTimezone
	c.ResetCheckInterval = f.ResetCheckInterval.Duration
	c.SweepPageSize = f.SweepPageSize
	c.HTTPRequestsPerSecond = f.HTTPRequestsPerSecond
	c.HTTPBurst = f.HTTPBurst
	c.LogBackend = f.LogBackend
	c.LogLevel = f.LogLevel
}

// parseFile overlays the file named by -c / -config onto config. The format
// follows the extension: .yaml and .yml are YAML, anything else is JSON.
// An unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFile(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	if err := decodeFile(path, data, config); err != nil {
		panic(err)
	}
}

func decodeFile(path string, data []byte, config *Config) error {
	fc := fileConfigFrom(config)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	fc.apply(config)
	return nil
}
