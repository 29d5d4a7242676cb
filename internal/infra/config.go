package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	APIBaseURL         string
	APIToken           string
	PollInterval       time.Duration
	HTTPTimeout        time.Duration
	MaxJobCost         int
	StubPort           string
	StubInitialCredits int
	StubCostPerSecond  int
	StubAdvanceAfter   time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// A .env file in the working directory is honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		APIBaseURL:         getEnv("VIVEO_API_URL", "http://localhost:8080"),
		APIToken:           os.Getenv("VIVEO_TOKEN"),
		PollInterval:       time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 3)),
		HTTPTimeout:        time.Second * time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 30)),
		MaxJobCost:         getEnvInt("MAX_JOB_COST", 500),
		StubPort:           getEnv("STUBD_PORT", "8080"),
		StubInitialCredits: getEnvInt("STUBD_INITIAL_CREDITS", 100),
		StubCostPerSecond:  getEnvInt("STUBD_COST_PER_SECOND", 2),
		StubAdvanceAfter:   time.Second * time.Duration(getEnvInt("STUBD_ADVANCE_SECONDS", 4)),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("VIVEO_API_URL is required")
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}

	if cfg.MaxJobCost <= 0 {
		return nil, fmt.Errorf("MAX_JOB_COST must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
