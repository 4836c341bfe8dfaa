package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default address :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %v", cfg.PollInterval)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("expected 10s fetch timeout, got %v", cfg.FetchTimeout)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("unexpected default timezone %q", cfg.Timezone)
	}
	if cfg.SampleMatchCount != 5 || cfg.SampleOtherCount != 3 {
		t.Errorf("unexpected sample counts %d/%d", cfg.SampleMatchCount, cfg.SampleOtherCount)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origins by default, got %v", cfg.AllowedOrigins)
	}
	if cfg.NATSURL != "" {
		t.Errorf("expected fan-out disabled by default, got %q", cfg.NATSURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("POLL_INTERVAL", "15")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://map.example.com, https://staging.example.com")
	t.Setenv("SAMPLE_ID_PATTERN", "^MTA_[0-9]+$")

	cfg := Load()

	if cfg.HTTPAddr != ":9999" {
		t.Errorf("expected :9999, got %q", cfg.HTTPAddr)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("expected 15s poll interval, got %v", cfg.PollInterval)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://staging.example.com" {
		t.Errorf("expected trimmed origin list, got %v", cfg.AllowedOrigins)
	}
	if cfg.SampleIDPattern != "^MTA_[0-9]+$" {
		t.Errorf("unexpected pattern %q", cfg.SampleIDPattern)
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-number")

	cfg := Load()
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected default on unparseable int, got %v", cfg.PollInterval)
	}
}
