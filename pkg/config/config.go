package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Storage       StorageConfig
	Fluctuation   FluctuationConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxUploadMB        int
	AllowedOrigins     []string
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	Enabled   bool
	JWTSecret string
	Issuer    string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       string
}

type StorageConfig struct {
	LocalPath     string
	RetentionDays int
	RetentionCron string
}

// FluctuationConfig tunes the OI heuristics and the emitted workbook.
type FluctuationConfig struct {
	DetailSampleRows  int
	AmountSampleRows  int
	AccountSampleRows int
	AmountDensity     float64
	YoYStrategy       string
	YearThreshold     int
}

// Load reads configuration from environment variables. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			MaxUploadMB:        getEnvAsInt("SERVER_MAX_UPLOAD_MB", 25),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			ShutdownTimeout:    time.Duration(getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DATABASE_ENABLED", true),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "sig_activa"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			Enabled:   getEnvAsBool("AUTH_ENABLED", true),
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "sig-activa"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			LocalPath:     getEnv("STORAGE_LOCAL_PATH", "./data/exports"),
			RetentionDays: getEnvAsInt("RETENTION_DAYS", 30),
			RetentionCron: getEnv("RETENTION_CRON", "0 3 * * *"),
		},
		Fluctuation: FluctuationConfig{
			DetailSampleRows:  getEnvAsInt("OI_DETAIL_SAMPLE_ROWS", 30),
			AmountSampleRows:  getEnvAsInt("OI_AMOUNT_SAMPLE_ROWS", 25),
			AccountSampleRows: getEnvAsInt("OI_ACCOUNT_SAMPLE_ROWS", 20),
			AmountDensity:     getEnvAsFloat("OI_AMOUNT_DENSITY", 0.4),
			YoYStrategy:       getEnv("OI_YOY_STRATEGY", "position"),
			YearThreshold:     getEnvAsInt("OI_YEAR_THRESHOLD", 2025),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is true")
	}
	switch c.Fluctuation.YoYStrategy {
	case "position", "date":
	default:
		return fmt.Errorf("OI_YOY_STRATEGY must be position or date, got %q", c.Fluctuation.YoYStrategy)
	}
	if c.Fluctuation.AmountDensity <= 0 || c.Fluctuation.AmountDensity > 1 {
		return fmt.Errorf("OI_AMOUNT_DENSITY must be in (0, 1], got %v", c.Fluctuation.AmountDensity)
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("SERVER_MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// MaxUploadBytes is the upload size limit in bytes
func (s ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
