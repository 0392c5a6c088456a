package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var overrideKeys = []string{
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "KAFKA_BROKERS", "BUSINESS_TIMEZONE", "LOG_LEVEL",
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, key := range overrideKeys {
		t.Setenv(key, "")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
user = "postgres"
dbname = "scheduling"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, DefaultTimezone, cfg.Business.Timezone)
	assert.Equal(t, "info", cfg.Logs.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "bookings.events", cfg.Kafka.Topic)
	assert.Equal(t, 5000, cfg.Redis.LockTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password= dbname=scheduling sslmode=disable",
		cfg.Database.DSN(),
	)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
port = 5432

[business]
timezone = "UTC"
`)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("BUSINESS_TIMEZONE", "Europe/Moscow")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "Europe/Moscow", cfg.Business.Timezone)
	assert.Equal(t, "debug", cfg.Logs.Level)
}

func TestLoad_BadPortEnv(t *testing.T) {
	path := writeConfig(t, `
[database]
host = "localhost"
`)
	t.Setenv("DB_PORT", "five")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Database.Host = "localhost"
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port out of range", func(c *Config) { c.Server.HTTPPort = 70000 }},
		{"unknown timezone", func(c *Config) { c.Business.Timezone = "Mars/Olympus" }},
		{"metrics without service name", func(c *Config) { c.Metrics.Enabled = true }},
		{"redis without address", func(c *Config) { c.Redis.Enabled = true }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }},
		{"empty db host", func(c *Config) { c.Database.Host = "" }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
