// Package config loads settings from the environment, optionally seeded from
// a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. STMT_SERVER_PORT.
const EnvPrefix = "STMT"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BodyLimitMB  int           `mapstructure:"body_limit_mb"`
	StaticDir    string        `mapstructure:"static_dir"`
}

// DBConfig selects and configures the statement store. Driver "memory"
// keeps records in process; "postgres" uses the connection settings.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OCRConfig tunes Tesseract for scanned statements.
type OCRConfig struct {
	Language    string `mapstructure:"language"`
	PageSegMode int    `mapstructure:"page_seg_mode"`
	DPI         int    `mapstructure:"dpi"`
}

// MetricsConfig controls the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

var defaults = map[string]any{
	"server.port":          ":8080",
	"server.read_timeout":  "30s",
	"server.write_timeout": "60s",
	"server.body_limit_mb": 50,
	"server.static_dir":    "",

	"db.driver":   "memory",
	"db.host":     "localhost",
	"db.port":     5432,
	"db.user":     "statements",
	"db.password": "",
	"db.name":     "statements",
	"db.sslmode":  "disable",
	"db.max_open": 10,
	"db.max_idle": 5,

	"log.level":  "info",
	"log.format": "json",

	// PSM 4: a single column of text of variable sizes.
	"ocr.language":      "eng",
	"ocr.page_seg_mode": 4,
	"ocr.dpi":           300,

	"metrics.enabled":   true,
	"metrics.namespace": "statement_extractor",
}

// Load reads configuration from STMT_-prefixed environment variables. When
// envFiles are given they are loaded first; missing files are ignored and
// variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown db driver %q (want memory or postgres)", c.DB.Driver)
	}
	if c.Server.BodyLimitMB <= 0 {
		return fmt.Errorf("server body limit must be positive, got %d", c.Server.BodyLimitMB)
	}
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("ocr dpi must be positive, got %d", c.OCR.DPI)
	}
	return nil
}
