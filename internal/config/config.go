package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	DBMaxOpen   int
	DBMaxIdle   int
	AutoMigrate bool

	RedisURL string

	KafkaBrokers []string
	EventTopic   string

	Session SessionConfig
}

// SessionConfig drives form session behaviour.
type SessionConfig struct {
	TTL                   time.Duration
	ValidateOnChange      bool
	ValidateOnBlur        bool
	GateForwardNavigation bool
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBMaxOpen:   getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:   getEnvInt("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		RedisURL:    getEnv("REDIS_URL", ""),
		EventTopic:  getEnv("EVENT_TOPIC", "assessment.events"),
		Session: SessionConfig{
			TTL:                   getEnvDuration("SESSION_TTL", 24*time.Hour),
			ValidateOnChange:      getEnvBool("VALIDATE_ON_CHANGE", true),
			ValidateOnBlur:        getEnvBool("VALIDATE_ON_BLUR", true),
			GateForwardNavigation: getEnvBool("GATE_FORWARD_NAVIGATION", false),
		},
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return fallback
}
