package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes variables for the duration of the test; cleanenv treats an
// empty variable as set.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, value) })
		}
		os.Unsetenv(key)
	}
}

var configKeys = []string{
	"CONFIG_PATH", "ENV", "PORT", "RATE_LIMIT", "JWT_SECRET", "SENTRY_DSN",
	"GOOGLE_API_KEY", "LLM_MODEL", "LLM_TIMEOUT", "STORE_DRIVER", "STORE_DATA_DIR",
	"DB_USERNAME", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME",
	"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_SECRET", "R2_BUCKET_NAME",
	"IMAGE_MAX_DIMENSION", "IMAGE_MAX_BYTES", "SHUTDOWN_TIMEOUT",
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, configKeys...)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8083, cfg.Port)
	assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1024, cfg.Images.MaxDimension)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	unsetEnv(t, configKeys...)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("GOOGLE_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "key", cfg.LLM.APIKey)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nstore:\n  driver: memory\n"), 0o600))
	unsetEnv(t, configKeys...)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:  StoreConfig{Driver: StoreDriverSQLite},
			LLM:    LLMConfig{Timeout: time.Second},
			Images: ImageConfig{MaxDimension: 512},
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Store.Driver = "redis"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Store.Driver = StoreDriverPostgres
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.LLM.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.R2.Bucket = "closet"
	assert.Error(t, cfg.Validate())
	cfg.R2 = R2Config{Bucket: "closet", AccountID: "acc", AccessKeyID: "id", AccessKeySecret: "secret"}
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Username: "u", Password: "p", Host: "h", Port: "5432", Name: "n"}
	assert.Equal(t, "postgres://u:p@h:5432/n", d.DSN())
}
