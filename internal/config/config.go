package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken     string         `yaml:"discord_token"`
	DatabaseURL      string         `yaml:"database_url"`
	LogLevel         string         `yaml:"log_level"`
	DevGuildID       string         `yaml:"dev_guild_id"`
	OwnerID          string         `yaml:"owner_id"`
	StateMaxMessages int            `yaml:"state_max_messages"`
	Dispatch         DispatchConfig `yaml:"dispatch"`
	Health           HealthConfig   `yaml:"health"`
}

type DispatchConfig struct {
	TimeoutSeconds     int  `yaml:"timeout_seconds"`
	BulkConcurrency    int  `yaml:"bulk_concurrency"`
	AuditEntryEvents   bool `yaml:"audit_entry_events"`
	AuditMaxAgeSeconds int  `yaml:"audit_max_age_seconds"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:         "info",
		StateMaxMessages: 200,
		Dispatch: DispatchConfig{
			TimeoutSeconds:     30,
			BulkConcurrency:    4,
			AuditEntryEvents:   true,
			AuditMaxAgeSeconds: 30,
		},
		Health: HealthConfig{Enabled: false, Addr: ":8080"},
	}
}

// Load reads the yaml file named by CONFIG_PATH (default config.yaml) on top
// of DefaultConfig and then applies environment overrides.
func Load() (Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DiscordToken == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DatabaseURL = envString("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.DevGuildID = envString("DEV_GUILD_ID", cfg.DevGuildID)
	cfg.OwnerID = envString("OWNER_ID", cfg.OwnerID)
	cfg.StateMaxMessages = envInt("STATE_MAX_MESSAGES", cfg.StateMaxMessages)
	cfg.Dispatch.TimeoutSeconds = envInt("DISPATCH_TIMEOUT_SECONDS", cfg.Dispatch.TimeoutSeconds)
	cfg.Dispatch.BulkConcurrency = envInt("DISPATCH_BULK_CONCURRENCY", cfg.Dispatch.BulkConcurrency)
	cfg.Dispatch.AuditEntryEvents = envBool("AUDIT_ENTRY_EVENTS", cfg.Dispatch.AuditEntryEvents)
	cfg.Dispatch.AuditMaxAgeSeconds = envInt("AUDIT_MAX_AGE_SECONDS", cfg.Dispatch.AuditMaxAgeSeconds)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
}

func normalize(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.StateMaxMessages < 0 {
		cfg.StateMaxMessages = 0
	}
	if cfg.Dispatch.TimeoutSeconds <= 0 {
		cfg.Dispatch.TimeoutSeconds = defaults.Dispatch.TimeoutSeconds
	}
	if cfg.Dispatch.BulkConcurrency <= 0 {
		cfg.Dispatch.BulkConcurrency = defaults.Dispatch.BulkConcurrency
	}
	if cfg.Dispatch.AuditMaxAgeSeconds < 0 {
		cfg.Dispatch.AuditMaxAgeSeconds = 0
	}
	if cfg.Health.Addr == "" {
		cfg.Health.Addr = defaults.Health.Addr
	}
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(strings.ToLower(level)))

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
