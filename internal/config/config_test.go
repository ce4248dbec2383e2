package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Environment != "development" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("store timeout = %v", cfg.StoreTimeout)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("log level = %v", cfg.LogLevel)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("kafka brokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("SHUFFLE_QUESTIONS", "true")
	t.Setenv("MAX_PARTITION_CONCURRENCY", "3")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := load(v)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "9090" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("kafka brokers = %v", cfg.KafkaBrokers)
	}
	if cfg.StoreTimeout != 750*time.Millisecond {
		t.Errorf("store timeout = %v", cfg.StoreTimeout)
	}
	if !cfg.ShuffleQuestions || cfg.MaxPartitionConcurrency != 3 {
		t.Errorf("unexpected assembly settings: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "LOG_LEVEL", "loud"},
		{"bad environment", "ENVIRONMENT", "moon"},
		{"bad port", "PORT", "http"},
		{"zero timeout", "STORE_TIMEOUT", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			if _, err := load(v); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
