// Package config owns the service configuration: defaults, file and
// environment loading, and validation of the effective snapshot.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds every option the service reads at startup.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Cache    CacheConfig    `koanf:"cache"`
	Display  DisplayConfig  `koanf:"display"`
}

// ServerConfig collects the HTTP listener and logging knobs.
type ServerConfig struct {
	Listen  ListenConfig  `koanf:"listen"`
	Logging LoggingConfig `koanf:"logging"`
}

// ListenConfig instructs the HTTP listener about bind address and port.
type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// LoggingConfig expresses log level, format, and correlation ID wiring.
type LoggingConfig struct {
	Level             string `koanf:"level"`
	Format            string `koanf:"format"`
	CorrelationHeader string `koanf:"correlationHeader"`
}

// UpstreamConfig points at the booking provider's availability API.
type UpstreamConfig struct {
	BaseURL        string `koanf:"baseUrl"`
	APIKey         string `koanf:"apiKey"`
	TimeoutSeconds int    `koanf:"timeoutSeconds"`
}

// Timeout returns the configured HTTP timeout for upstream fetches.
func (c UpstreamConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig selects and tunes the availability cache backend.
type CacheConfig struct {
	Backend              string       `koanf:"backend"`
	TTLHours             int          `koanf:"ttlHours"`
	SweepIntervalMinutes int          `koanf:"sweepIntervalMinutes"`
	KeyPrefix            string       `koanf:"keyPrefix"`
	Valkey               ValkeyConfig `koanf:"valkey"`
}

// TTL returns the entry freshness window.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SweepInterval returns the cadence of the periodic expired-entry sweep.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// ValkeyConfig carries connection settings for the shared durable backend.
type ValkeyConfig struct {
	Address  string          `koanf:"address"`
	Username string          `koanf:"username"`
	Password string          `koanf:"password"`
	DB       int             `koanf:"db"`
	TLS      ValkeyTLSConfig `koanf:"tls"`
}

// ValkeyTLSConfig controls transport security for the shared backend.
type ValkeyTLSConfig struct {
	Enabled bool   `koanf:"enabled"`
	CAFile  string `koanf:"caFile"`
}

// DisplayConfig holds presentation settings applied when slot details are
// rendered for deep-linked pages.
type DisplayConfig struct {
	Timezone string `koanf:"timezone"`
}

// Validate enforces invariants that keep the runtime predictable before
// serving traffic.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if c.Server.Listen.Port <= 0 || c.Server.Listen.Port > 65535 {
		return fmt.Errorf("config: listen.port invalid: %d", c.Server.Listen.Port)
	}
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return errors.New("config: upstream.baseUrl required")
	}
	if c.Upstream.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: upstream.timeoutSeconds invalid: %d", c.Upstream.TimeoutSeconds)
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("config: cache.ttlHours invalid: %d", c.Cache.TTLHours)
	}
	if c.Cache.SweepIntervalMinutes < 0 {
		return fmt.Errorf("config: cache.sweepIntervalMinutes invalid: %d", c.Cache.SweepIntervalMinutes)
	}
	backend := strings.TrimSpace(strings.ToLower(c.Cache.Backend))
	switch backend {
	case "", "memory":
	case "valkey":
		if strings.TrimSpace(c.Cache.Valkey.Address) == "" {
			return errors.New("config: cache.valkey.address required for valkey backend")
		}
	default:
		return fmt.Errorf("config: cache.backend unsupported: %s", c.Cache.Backend)
	}
	if strings.TrimSpace(c.Display.Timezone) == "" {
		return errors.New("config: display.timezone required")
	}
	return nil
}

// DefaultConfig returns the baseline values applied before file and
// environment overrides.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen: ListenConfig{
				Address: "0.0.0.0",
				Port:    8080,
			},
			Logging: LoggingConfig{
				Level:             "info",
				Format:            "json",
				CorrelationHeader: "X-Request-ID",
			},
		},
		Upstream: UpstreamConfig{
			BaseURL:        "https://booking.zeksurfschool.com",
			TimeoutSeconds: 15,
		},
		Cache: CacheConfig{
			Backend:              "memory",
			TTLHours:             24,
			SweepIntervalMinutes: 60,
			KeyPrefix:            "avail",
		},
		Display: DisplayConfig{
			Timezone: "America/Los_Angeles",
		},
	}
}
