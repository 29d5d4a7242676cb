package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("VIVEO_API_URL", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")
	t.Setenv("MAX_JOB_COST", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Fatalf("APIBaseURL mismatch: got %q want %q", cfg.APIBaseURL, "http://localhost:8080")
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("PollInterval mismatch: got %v want %v", cfg.PollInterval, 3*time.Second)
	}
	if cfg.MaxJobCost != 500 {
		t.Fatalf("MaxJobCost mismatch: got %d want 500", cfg.MaxJobCost)
	}
}

func TestLoadConfigHonorsExplicitValues(t *testing.T) {
	t.Setenv("VIVEO_API_URL", "https://api.viveo.example.com")
	t.Setenv("VIVEO_TOKEN", "tok-123")
	t.Setenv("POLL_INTERVAL_SECONDS", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.APIBaseURL != "https://api.viveo.example.com" {
		t.Fatalf("APIBaseURL mismatch: got %q", cfg.APIBaseURL)
	}
	if cfg.APIToken != "tok-123" {
		t.Fatalf("APIToken mismatch: got %q", cfg.APIToken)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval mismatch: got %v want %v", cfg.PollInterval, 5*time.Second)
	}
}

func TestLoadConfigRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("POLL_INTERVAL_SECONDS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for zero poll interval")
	}
}
