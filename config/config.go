package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	RateLimit RateLimitConfig
	Security  SecurityConfig
}

type ServerConfig struct {
	Port            string
	APIPrefix       string
	ShutdownTimeout time.Duration
	// TrustedProxies may set X-Forwarded-For; empty trusts none.
	TrustedProxies []string
	// MetricsPath serves Prometheus metrics; empty disables the endpoint.
	MetricsPath string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	LogFormat   string
	Version     string
}

// RateLimitConfig drives the "api" fixed-window policy.
type RateLimitConfig struct {
	WindowMs    int
	MaxRequests int
	// StrictRoutes lists "METHOD /route/pattern" entries that use the strict preset.
	StrictRoutes []string
}

type SecurityConfig struct {
	CORSOrigins []string
	// HardeningMax is the token budget of the hardening policy per 15 minutes.
	HardeningMax   int
	BodyLimitBytes int64
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "3000"),
			APIPrefix:       getEnv("API_PREFIX", "/api"),
			ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_MS", 10000)) * time.Millisecond,
			TrustedProxies:  getEnvAsList("TRUSTED_PROXIES", nil),
			MetricsPath:     getEnvOrEmpty("METRICS_PATH", "/metrics"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", getEnv("NODE_ENV", EnvDevelopment)),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "json"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		RateLimit: RateLimitConfig{
			WindowMs:     getEnvAsInt("RATE_LIMIT_WINDOW_MS", 900000),
			MaxRequests:  getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
			StrictRoutes: getEnvAsList("RATE_LIMIT_STRICT_ROUTES", nil),
		},
		Security: SecurityConfig{
			CORSOrigins:    getEnvAsList("CORS_ORIGIN", []string{"*"}),
			HardeningMax:   getEnvAsInt("RATE_LIMIT_MAX", 100),
			BodyLimitBytes: 10 << 20,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "3000",
			APIPrefix:       "/api",
			ShutdownTimeout: 10 * time.Second,
			MetricsPath:     "/metrics",
		},
		App: AppConfig{
			Environment: EnvDevelopment,
			LogLevel:    "info",
			LogFormat:   "json",
			Version:     "1.0.0",
		},
		RateLimit: RateLimitConfig{
			WindowMs:    900000,
			MaxRequests: 100,
		},
		Security: SecurityConfig{
			CORSOrigins:    []string{"*"},
			HardeningMax:   100,
			BodyLimitBytes: 10 << 20,
		},
	}
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if !strings.HasPrefix(c.Server.APIPrefix, "/") {
		return fmt.Errorf("API_PREFIX must start with '/', got %q", c.Server.APIPrefix)
	}

	if c.RateLimit.WindowMs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_MS must be positive, got %d", c.RateLimit.WindowMs)
	}

	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimit.MaxRequests)
	}

	if c.Security.HardeningMax < 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must not be negative, got %d", c.Security.HardeningMax)
	}

	return nil
}

func (c Config) IsProduction() bool  { return c.App.Environment == EnvProduction }
func (c Config) IsDevelopment() bool { return c.App.Environment == EnvDevelopment }
func (c Config) IsTest() bool        { return c.App.Environment == EnvTest }

// Window returns the api policy window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrEmpty honours an explicitly empty variable.
func getEnvOrEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
