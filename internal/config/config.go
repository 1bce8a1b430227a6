package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Environment variables recognised by Load.
const (
	EnvConfigPath     = "GYM_CONFIG"
	EnvDatabaseDSN    = "GYM_DATABASE_DSN"
	EnvHost           = "GYM_HOST"
	EnvPort           = "GYM_PORT"
	EnvLogLevel       = "GYM_LOG_LEVEL"
	EnvWebDistDir     = "GYM_WEB_DIST_DIR"
	EnvExpirySchedule = "GYM_EXPIRY_SCHEDULE"

	// DefaultConfigPath is used when neither a flag nor GYM_CONFIG names a file.
	DefaultConfigPath = "config.yaml"
)

// AppConfig holds process-level options collected from the command line.
type AppConfig struct {
	ConfigPath string // Path passed via -config, may be empty.
}

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Web      WebConfig      `yaml:"web"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

// DatabaseConfig selects the database. SQLite paths and PostgreSQL URLs are both accepted.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig configures logrus output and optional file rotation.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // Empty logs to stdout only.
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// JobsConfig configures background jobs.
type JobsConfig struct {
	ExpirySchedule     string `yaml:"expiry_schedule"` // Standard five-field cron expression.
	DisableExpirySweep bool   `yaml:"disable_expiry_sweep"`
}

// WebConfig points at a built SPA bundle. Empty disables static serving.
type WebConfig struct {
	DistDir string `yaml:"dist_dir"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            3001,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{DSN: "gym_management.db"},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Jobs: JobsConfig{ExpirySchedule: "5 0 * * *"},
	}
}

// ResolveConfigPath picks the config file: explicit path, then GYM_CONFIG, then config.yaml.
func ResolveConfigPath(path string) string {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return env
	}
	return DefaultConfigPath
}

// ConfigExists reports whether path names a regular file.
func ConfigExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadDotEnv loads .env from the working directory when present. Variables already set win.
func LoadDotEnv() {
	if errLoad := godotenv.Load(); errLoad != nil {
		if !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("config: failed to load .env")
		}
		return
	}
	log.Debug("config: loaded .env")
}

// Load reads path (a missing file yields defaults), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
			}
		case errors.Is(errRead, os.ErrNotExist):
			log.Debugf("config: %s not found, using defaults", path)
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	if errEnv := cfg.applyEnv(); errEnv != nil {
		return nil, errEnv
	}
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return &cfg, nil
}

// LoadDatabaseDSN loads path and returns only the database DSN.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	return cfg.Database.DSN, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); v != "" {
		c.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		c.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPort)); v != "" {
		port, errParse := strconv.Atoi(v)
		if errParse != nil {
			return fmt.Errorf("config: %s: %w", EnvPort, errParse)
		}
		c.Server.Port = port
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWebDistDir)); v != "" {
		c.Web.DistDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExpirySchedule)); v != "" {
		c.Jobs.ExpirySchedule = v
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database.dsn is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port out of range: %d", c.Server.Port)
	}
	if _, errLevel := log.ParseLevel(c.Logging.Level); errLevel != nil {
		return fmt.Errorf("config: logging.level: %w", errLevel)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("config: server.shutdown_timeout must not be negative")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
