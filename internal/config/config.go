package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string        `envconfig:"LOG_FORMAT" default:"text"`
	MinScale       float64       `envconfig:"MIN_SCALE" default:"0.25"`
	MaxScale       float64       `envconfig:"MAX_SCALE" default:"8"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"24h"`
	StageIdleTTL   time.Duration `envconfig:"STAGE_IDLE_TTL" default:"30m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine would refuse at stage creation.
func (c *Config) Validate() error {
	if c.MinScale <= 0 || c.MinScale > 1 || c.MaxScale < 1 {
		return fmt.Errorf("scale limits [%g, %g] must satisfy 0 < min <= 1 <= max", c.MinScale, c.MaxScale)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl %v must be positive", c.TokenTTL)
	}
	return nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the host[:port] of each allowed origin, the form the
// websocket origin check matches against.
func (c *Config) OriginHosts() []string {
	var out []string
	for _, o := range c.Origins() {
		if o == "*" {
			out = append(out, o)
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			out = append(out, o)
			continue
		}
		out = append(out, u.Host)
	}
	return out
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
