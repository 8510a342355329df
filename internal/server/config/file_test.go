package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseFile_JSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"endpoint_addr_grpc":     "www.example:9000",
		"database_dsn":           "ledger.db",
		"secret_key":             "my_secret_key",
		"rate_increase_cooldown": "15s",
		"reset_check_interval":   int64(2 * time.Minute),
		"sweep_page_size":        50,
	})
	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)

	assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
	assert.Equal(t, "ledger.db", cfg.DatabaseDSN)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, 15*time.Second, cfg.RateIncreaseCooldown)
	assert.Equal(t, 2*time.Minute, cfg.ResetCheckInterval)
	assert.Equal(t, 50, cfg.SweepPageSize)
	assert.Equal(t, ":8080", cfg.EndpointAddrHTTP, "keys absent from the file keep their value")
}

func Test_parseFile_YAML(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
store_backend: s3
s3_bucket: ledger
s3_prefix: prod
store_timeout: 2s
accrual_rate_constant: 3.0e-15
`), 0o600))
	os.Args = []string{"testbin", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)

	assert.Equal(t, StoreS3, cfg.StoreBackend)
	assert.Equal(t, "ledger", cfg.S3Bucket)
	assert.Equal(t, "prod", cfg.S3Prefix)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 3e-15, cfg.AccrualRateConstant)
}

func Test_parseFile_NoFlagIsNoop(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := &Config{}
	cfg.LoadDefaults()
	want := *cfg
	parseFile(cfg)
	assert.Equal(t, want, *cfg)
}

func Test_parseFile_Errors(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "nope.json")}
		assert.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", path}
		assert.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("bad duration", func(t *testing.T) {
		err := decodeFile("cfg.yaml", []byte("store_timeout: soon\n"), &Config{})
		assert.Error(t, err)
	})
}
