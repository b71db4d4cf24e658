// Package config loads the vitals service configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"time"
)

const (
	DefaultPort        = 9090
	DefaultMetricsPath = "/metrics"

	DefaultWatcherInterval = 5 * time.Second

	DefaultOTELPushInterval = 1 * time.Second
)

// Config holds the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Watcher   WatcherConfig   `yaml:"watcher"`
	OTEL      *OTELConfig     `yaml:"otel,omitempty"`
	Profiling ProfilingConfig `yaml:"profiling"`
}

// ServerConfig defines the HTTP surface.
type ServerConfig struct {
	Port        int    `yaml:"port" env:"VITALS_PORT"`
	MetricsPath string `yaml:"metrics_path" env:"VITALS_METRICS_PATH"`
}

// WatcherConfig controls the process resource watcher.
type WatcherConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval" env:"VITALS_WATCHER_INTERVAL"`
}

// OTELConfig defines OTLP push settings. Nil disables OTLP export.
type OTELConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Endpoint string            `yaml:"endpoint" env:"VITALS_OTEL_ENDPOINT"`
	Protocol string            `yaml:"protocol"` // "http" or "grpc"
	Interval time.Duration     `yaml:"interval"`
	Resource map[string]string `yaml:"resource,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// ProfilingConfig controls the on-demand CPU profiler.
type ProfilingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output" env:"VITALS_PROFILE_OUTPUT"`
}

// Validate applies defaults and checks configured values.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MetricsPath == "" {
		c.Server.MetricsPath = DefaultMetricsPath
	}

	if c.Watcher.Interval <= 0 {
		c.Watcher.Interval = DefaultWatcherInterval
	}

	if c.OTEL != nil && c.OTEL.Enabled {
		if c.OTEL.Endpoint == "" {
			return fmt.Errorf("otel export enabled without endpoint")
		}
		if c.OTEL.Protocol == "" {
			c.OTEL.Protocol = "http"
		}
		switch c.OTEL.Protocol {
		case "http", "grpc":
		default:
			return fmt.Errorf("invalid otel protocol: %s (must be http or grpc)", c.OTEL.Protocol)
		}
		if c.OTEL.Interval <= 0 {
			c.OTEL.Interval = DefaultOTELPushInterval
		}
	}

	return nil
}
