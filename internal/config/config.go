// Package config loads partnerflow settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/neomorfeo/partnerflow/internal/domain"
)

// Notification sinks.
const (
	SinkRiver = "river"
	SinkKafka = "kafka"
	SinkLog   = "log"
)

// Config holds the service settings. Telemetry settings live in otel.Config.
type Config struct {
	Port            string                `env:"PORT" envDefault:"8080"`
	DatabasePath    string                `env:"DATABASE_PATH" envDefault:"partnerflow.db"`
	CatalogPath     string                `env:"CATALOG_PATH"` // optional YAML seed for offers and plans
	ApprovalPolicy  domain.ApprovalPolicy `env:"APPROVAL_POLICY" envDefault:"activate"`
	Sink            string                `env:"NOTIFICATION_SINK" envDefault:"river"`
	KafkaBrokers    []string              `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic      string                `env:"KAFKA_TOPIC" envDefault:"partnerflow.notifications"`
	LogLevel        string                `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment  bool                  `env:"LOG_DEVELOPMENT" envDefault:"false"`
	ConflictRetries uint64                `env:"CONFLICT_RETRIES" envDefault:"3"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if !c.ApprovalPolicy.Valid() {
		return fmt.Errorf("APPROVAL_POLICY: unknown policy %q (use %q or %q)",
			c.ApprovalPolicy, domain.ApprovalActivate, domain.ApprovalCatalogue)
	}

	switch c.Sink {
	case SinkRiver, SinkLog:
	case SinkKafka:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("NOTIFICATION_SINK=kafka requires KAFKA_BROKERS and KAFKA_TOPIC")
		}
	default:
		return fmt.Errorf("NOTIFICATION_SINK: unknown sink %q (use %q, %q or %q)", c.Sink, SinkRiver, SinkKafka, SinkLog)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Logger builds the root logger: JSON in production, console in development.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
