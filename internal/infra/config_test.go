package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("provider = %q, want gemini", cfg.AIProvider)
	}
	if cfg.HTTPReadTimeout != 30*time.Second {
		t.Fatalf("read timeout = %v", cfg.HTTPReadTimeout)
	}
	if len(cfg.CORSOrigins) != 1 {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "15")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "9090" || cfg.AIProvider != "openai" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins = %v", cfg.CORSOrigins)
	}
	if cfg.HTTPWriteTimeout != 15*time.Second {
		t.Fatalf("write timeout = %v", cfg.HTTPWriteTimeout)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("HTTP_IDLE_TIMEOUT_SECONDS", "not-a-number")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPIdleTimeout != 60*time.Second {
		t.Fatalf("idle timeout = %v, want default", cfg.HTTPIdleTimeout)
	}
}
