package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	WardAPI   WardAPIConfig
	Cache     CacheConfig
	Feedback  FeedbackConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        int
	Env         string
	CORSOrigins []string
}

type LogConfig struct {
	Level string
}

// WardAPIConfig holds configuration for the external ward REST API.
type WardAPIConfig struct {
	// BaseURL is the API root, e.g. https://host/COMP2005/api
	BaseURL string
	// Timeout bounds a single HTTP request
	Timeout time.Duration
	// RetryAttempts is the total number of tries per request
	RetryAttempts int
	RetryDelay    time.Duration
	// RequestsPerSecond and Burst throttle outbound calls
	RequestsPerSecond int
	Burst             int
}

// CacheConfig holds configuration for the record cache.
type CacheConfig struct {
	// RefreshInterval is the period of the scheduled full refresh
	RefreshInterval time.Duration
	// WarmOnStart runs a full refresh before the first tick
	WarmOnStart bool
}

type FeedbackConfig struct {
	LogPath string
}

type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Validate checks values that would make the service unusable
func (c *Config) Validate() error {
	if c.WardAPI.BaseURL == "" {
		return fmt.Errorf("WARD_API_BASE_URL must not be empty")
	}
	if c.WardAPI.RetryAttempts <= 0 {
		return fmt.Errorf("WARD_API_RETRY_ATTEMPTS must be positive, got %d", c.WardAPI.RetryAttempts)
	}
	if c.Cache.RefreshInterval <= 0 {
		return fmt.Errorf("CACHE_REFRESH_INTERVAL must be positive, got %s", c.Cache.RefreshInterval)
	}
	return nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvInt("SERVER_PORT", 8080),
			Env:         getEnv("ENV", "development"),
			CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		WardAPI: WardAPIConfig{
			BaseURL:           strings.TrimRight(getEnv("WARD_API_BASE_URL", "https://web.socem.plymouth.ac.uk/COMP2005/api"), "/"),
			Timeout:           getEnvDuration("WARD_API_TIMEOUT", 30*time.Second),
			RetryAttempts:     getEnvInt("WARD_API_RETRY_ATTEMPTS", 3),
			RetryDelay:        getEnvDuration("WARD_API_RETRY_DELAY", time.Second),
			RequestsPerSecond: getEnvInt("WARD_API_RPS", 10),
			Burst:             getEnvInt("WARD_API_BURST", 5),
		},
		Cache: CacheConfig{
			RefreshInterval: getEnvDuration("CACHE_REFRESH_INTERVAL", 12*time.Hour),
			WarmOnStart:     getEnvBool("CACHE_WARM_ON_START", true),
		},
		Feedback: FeedbackConfig{
			LogPath: getEnv("FEEDBACK_LOG_PATH", "logs/usability_feedback.log"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvInt("RATE_LIMIT_RPS", 50),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 100),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		// Parse comma-separated values
		var result []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				result = append(result, v)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
