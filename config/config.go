/*
config.go - Server configuration file

PURPOSE:
  Loads the optional YAML file given with -config. Flags passed on the
  command line override the file. Schedule rules are NOT configured here:
  they live in the settings store so coordinators can change them at
  runtime through /api/settings.

EXAMPLE FILE:
  server:
    port: 8080
    read_timeout: 15s
    write_timeout: 15s
    idle_timeout: 60s
    shutdown_timeout: 30s
    cors_origins: ["http://localhost:5173"]
  database:
    path: ./data/timesheet.db
  log:
    level: info
    format: text

SEE ALSO:
  - cmd/server/main.go: flag overrides
*/
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port               int           `yaml:"port"`
	CORSOrigins        []string      `yaml:"cors_origins"`
	ReadTimeout        time.Duration `yaml:"-"`
	WriteTimeout       time.Duration `yaml:"-"`
	IdleTimeout        time.Duration `yaml:"-"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ReadTimeoutRaw     string        `yaml:"read_timeout"`
	WriteTimeoutRaw    string        `yaml:"write_timeout"`
	IdleTimeoutRaw     string        `yaml:"idle_timeout"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// Path is a SQLite file path or ":memory:".
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	// defaults never fail validation
	_ = cfg.validateAndNormalize()
	return cfg
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if c.Database.Path == "" {
		c.Database.Path = "timesheet.db"
	}
	return c.Log.validateAndNormalize()
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", s.Port)
	}
	if len(s.CORSOrigins) == 0 {
		s.CORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	durations := []struct {
		name string
		raw  string
		def  time.Duration
		dst  *time.Duration
	}{
		{"server.read_timeout", s.ReadTimeoutRaw, 15 * time.Second, &s.ReadTimeout},
		{"server.write_timeout", s.WriteTimeoutRaw, 15 * time.Second, &s.WriteTimeout},
		{"server.idle_timeout", s.IdleTimeoutRaw, 60 * time.Second, &s.IdleTimeout},
		{"server.shutdown_timeout", s.ShutdownTimeoutRaw, 30 * time.Second, &s.ShutdownTimeout},
	}
	for _, d := range durations {
		v, err := parseDurationAllowEmpty(d.raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
		if v == 0 {
			v = d.def
		}
		*d.dst = v
	}
	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	if _, err := l.SlogLevel(); err != nil {
		return err
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	switch l.Format {
	case "":
		l.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", l.Format)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger described by the config.
func (l LogConfig) NewLogger() *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}
