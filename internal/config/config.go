package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"             env:"SERVER_ADDR"             env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"izposoja.sqlite3"`
}

// JobsConfig holds the periodic job settings.
type JobsConfig struct {
	AuditInterval    time.Duration `yaml:"audit_interval"    env:"JOBS_AUDIT_INTERVAL"    env-default:"24h"`
	ReminderInterval time.Duration `yaml:"reminder_interval" env:"JOBS_REMINDER_INTERVAL" env-default:"12h"`
	ReminderWindow   time.Duration `yaml:"reminder_window"   env:"JOBS_REMINDER_WINDOW"   env-default:"72h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	File string `yaml:"file" env:"LOG_FILE"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. The YAML path comes from CONFIG_PATH
// (fallback "./config.yaml"); a missing file is only an error when the
// path was set explicitly.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Jobs.AuditInterval <= 0 {
		return fmt.Errorf("audit interval must be positive")
	}
	if c.Jobs.ReminderInterval <= 0 {
		return fmt.Errorf("reminder interval must be positive")
	}
	if c.Jobs.ReminderWindow <= 0 {
		return fmt.Errorf("reminder window must be positive")
	}
	return nil
}
