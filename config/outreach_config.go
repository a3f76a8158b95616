package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	RedisURL    string

	// JWT
	JWTSecret string

	// Microsoft Graph
	GraphClientID     string
	GraphClientSecret string
	GraphTenantID     string
	GraphUserEmail    string

	// SMTP fallback
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTLSMode  string

	// Templates
	TemplatesPath string

	// Reply sweep
	SweepSchedule    string
	SweepLookback    time.Duration
	SweepWorkers     int
	SchedulerEnabled bool

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// Microsoft Graph
		GraphClientID:     getEnv("GRAPH_CLIENT_ID", ""),
		GraphClientSecret: getEnv("GRAPH_CLIENT_SECRET", ""),
		GraphTenantID:     getEnv("GRAPH_TENANT_ID", ""),
		GraphUserEmail:    getEnv("GRAPH_USER_EMAIL", ""),

		// SMTP fallback
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPTLSMode:  getEnv("SMTP_TLS_MODE", "starttls"),

		// Templates
		TemplatesPath: getEnv("EMAIL_TEMPLATES_PATH", ""),

		// Reply sweep
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "*/30 * * * *"),
		SweepLookback:    time.Duration(getEnvInt("SWEEP_LOOKBACK_DAYS", 7)) * 24 * time.Hour,
		SweepWorkers:     getEnvInt("SWEEP_WORKERS", 4),
		SchedulerEnabled: getEnvBool("SCHEDULER_ENABLED", true),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// GraphConfigured reports whether all Graph credentials are present.
func (c *Config) GraphConfigured() bool {
	return c.GraphClientID != "" && c.GraphClientSecret != "" &&
		c.GraphTenantID != "" && c.GraphUserEmail != ""
}

// SMTPConfigured reports whether the SMTP fallback is usable.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
