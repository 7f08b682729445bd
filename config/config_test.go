package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "field_service", cfg.Mongo.DBName)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.S3Enabled())

	ttl, err := cfg.JWT.TTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestLoadConfigFile(t *testing.T) {
	dir := writeConfig(t, `
server:
  port: "9000"
storage:
  driver: mongo
mongo:
  uri: mongodb://db:27017
  dbName: dashboard
s3:
  bucket: reports-bucket
  region: sa-east-1
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mongo", cfg.Storage.Driver)
	assert.Equal(t, "dashboard", cfg.Mongo.DBName)
	assert.True(t, cfg.S3Enabled())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: \"9000\"\n")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/fs")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/fs", cfg.Postgres.URL)
}

func TestValidate(t *testing.T) {
	base := Config{
		Server:  ServerConfig{Mode: "release"},
		Storage: StorageConfig{Driver: "memory"},
		JWT:     JWTConfig{Expiration: "1h"},
	}

	t.Run("ok", func(t *testing.T) {
		cfg := base
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base
		cfg.Storage.Driver = "redis"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres without url", func(t *testing.T) {
		cfg := base
		cfg.Storage.Driver = "postgres"
		assert.Error(t, cfg.Validate())
	})

	t.Run("auth without secret", func(t *testing.T) {
		cfg := base
		cfg.Auth = AuthConfig{Enabled: true, AdminPassword: "x"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := base
		cfg.Server.Mode = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad expiration", func(t *testing.T) {
		cfg := base
		cfg.JWT.Expiration = "tomorrow"
		assert.Error(t, cfg.Validate())
	})
}
