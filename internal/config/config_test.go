package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RABBITMQ_URL", "amqp://localhost:5672")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadRequiresRabbitMQURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("RABBITMQ_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when RABBITMQ_URL is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("RABBITMQ_URL", "amqp://localhost:5672")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SUGGESTION_QUIET_MS", "")
	t.Setenv("RATE_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.QuietPeriod != time.Second {
		t.Errorf("QuietPeriod = %v, want 1s", cfg.QuietPeriod)
	}
	if cfg.RateLimit != "5-S" {
		t.Errorf("RateLimit = %q, want 5-S", cfg.RateLimit)
	}
	if cfg.RabbitMQPrefetch != 1 {
		t.Errorf("RabbitMQPrefetch = %d, want 1", cfg.RabbitMQPrefetch)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskflow")
	t.Setenv("RABBITMQ_URL", "amqp://localhost:5672")
	t.Setenv("SUGGESTION_QUIET_MS", "250")
	t.Setenv("SERVER_DEBUG_MODE", "true")
	t.Setenv("TODO_LIST_CACHE_TTL_MS", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.QuietPeriod != 250*time.Millisecond {
		t.Errorf("QuietPeriod = %v, want 250ms", cfg.QuietPeriod)
	}
	if !cfg.ServerDebugMode {
		t.Error("expected ServerDebugMode to be true")
	}
	if cfg.ListCacheTTL != 5*time.Second {
		t.Errorf("ListCacheTTL = %v, want 5s", cfg.ListCacheTTL)
	}
}
