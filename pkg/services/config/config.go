package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. WASTEOPS_API_BASE_URL.
const EnvPrefix = "WASTEOPS"

type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type API struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	RetryMax int           `mapstructure:"retry_max"`
}

type Storage struct {
	// Path of the SQLite database; ":memory:" keeps contexts for the process lifetime only.
	Path string `mapstructure:"path"`
}

type Session struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// IdleTTL evicts report views of tabs that have not been seen for this long.
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
	// Retention deletes stored contexts of abandoned tabs; 0 keeps them forever.
	Retention time.Duration `mapstructure:"retention"`
}

type Config struct {
	Server  Server  `mapstructure:"server"`
	API     API     `mapstructure:"api"`
	Storage Storage `mapstructure:"storage"`
	Session Session `mapstructure:"session"`
	// PublicOrigin prefixes shareable links; empty yields relative links.
	PublicOrigin string `mapstructure:"public_origin"`
	LogLevel     string `mapstructure:"log_level"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.retry_max", 2)
	v.SetDefault("storage.path", "wasteops.db")
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.retention", 30*24*time.Hour)
	v.SetDefault("public_origin", "")
	v.SetDefault("log_level", "info")
}

// LoadConfig reads the optional config file at path and applies WASTEOPS_*
// environment overrides on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.API.RetryMax < 0 {
		return fmt.Errorf("api.retry_max must not be negative")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive")
	}
	if c.Session.IdleTTL < 0 || c.Session.Retention < 0 {
		return fmt.Errorf("session.idle_ttl and session.retention must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Addr is the listen address of the web server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Level is the parsed log level; Validate guarantees it parses.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
