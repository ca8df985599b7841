package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.ServerPort != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.ServerPort)
	}
	if cfg.Auth.AccessTTL != time.Hour {
		t.Fatalf("expected 1h access ttl, got %s", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("expected 30d refresh ttl, got %s", cfg.Auth.RefreshTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.Events.Backend != "none" || cfg.Storage.Backend != "none" {
		t.Fatalf("expected optional backends disabled, got events=%q storage=%q", cfg.Events.Backend, cfg.Storage.Backend)
	}
	if cfg.DebugErrors {
		t.Fatalf("debug errors must be off by default")
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("expected 15s request timeout, got %s", cfg.RequestTimeout)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.ServerPort != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.ServerPort)
	}
	if cfg.Database.Host != "db.internal" || !cfg.Database.UseSSL {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.Auth.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected auth config: %+v", cfg.Auth)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("JWT_REFRESH_TTL", "forever")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
