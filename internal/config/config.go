// internal/config/config.go
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config is read from the environment (and a .env file, when present).
type Config struct {
	ResultsDir string `env:"RESULTS_DIR" envDefault:"results"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	// RedisAddr enables publishing results to the historian queue when set.
	RedisAddr string `env:"REDIS_ADDR"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	QueueName string `env:"HISTORIAN_QUEUE_NAME" envDefault:"roulette_results"`

	// DatabaseURL enables writing results straight to PostgreSQL when set.
	DatabaseURL string `env:"DATABASE_URL"`

	HistorianBatchSize int `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlushMs   int `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// NewLogger builds a logrus logger at the configured level.
func (c Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	logger := logrus.New()
	logger.SetLevel(level)
	return logger, nil
}
