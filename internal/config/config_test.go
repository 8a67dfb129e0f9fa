package config

import (
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"RESULTS_DIR", "LOG_LEVEL", "REDIS_ADDR", "REDIS_DB", "HISTORIAN_QUEUE_NAME", "DATABASE_URL", "HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "results", cfg.ResultsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "roulette_results", cfg.QueueName)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 20, cfg.HistorianBatchSize)
	assert.Equal(t, 500, cfg.HistorianFlushMs)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RESULTS_DIR", "/tmp/out")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.ResultsDir)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)

	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := Config{LogLevel: "chatty"}.NewLogger()
	assert.Error(t, err)
}
