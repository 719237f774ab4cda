// Package config loads djournal settings from an optional YAML file and
// DJOURNAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/RubeHicksCube/Djournal/internal/clock"
	"github.com/RubeHicksCube/Djournal/internal/constants"
	"github.com/RubeHicksCube/Djournal/internal/models"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	envPrefix = "DJOURNAL"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
}

type RetentionConfig struct {
	MaxAgeDays int `mapstructure:"max_age_days"`
	MaxCount   int `mapstructure:"max_count"`
}

type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type BackupConfig struct {
	MaxBackups int `mapstructure:"max_backups"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Timezone  string          `mapstructure:"timezone"`
	Retention RetentionConfig `mapstructure:"retention"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Log       LogConfig       `mapstructure:"log"`
}

// DefaultPolicy is the retention policy for users without one of their own.
func (c *Config) DefaultPolicy() models.RetentionPolicy {
	return models.RetentionPolicy{
		MaxAgeDays: c.Retention.MaxAgeDays,
		MaxCount:   c.Retention.MaxCount,
	}
}

// ConfigDir is the directory holding the database, logs and backups.
func ConfigDir() string {
	return ExpandPath(constants.DefaultConfigDir)
}

// DefaultConfigPath returns ~/.config/djournal/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", constants.DefaultDBPath)
	v.SetDefault("database.dsn", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("timezone", "Local")
	v.SetDefault("retention.max_age_days", 0)
	v.SetDefault("retention.max_count", 0)
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("backup.max_backups", constants.MaxBackups)
	v.SetDefault("log.debug", false)
}

// Load reads path, or the default config file when path is empty. A missing
// file is not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	path = ExpandPath(path)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would fail later in a less obvious place.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q (want %s, %s or %s)", c.Database.Driver, DriverSQLite, DriverPostgres, DriverMemory)
	}
	if !clock.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("unknown timezone %q", c.Timezone)
	}
	if c.Retention.MaxAgeDays < 0 || c.Retention.MaxCount < 0 {
		return fmt.Errorf("retention limits must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}
