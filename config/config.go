// Package config loads the Dispatcher/Fleet Adapter configuration from a
// YAML or JSON file, with environment-variable overrides, in the teacher's
// koanf-backed style (config/config.go).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetctl/core/dispatcher"
	"github.com/kilianp07/fleetctl/core/fleet"
	"github.com/kilianp07/fleetctl/infra/mqtt"
)

// MetricsConfig selects the observability sink(s). Prometheus and InfluxDB
// may both be enabled at once, in which case events fan out to both (see
// infra/metrics.MultiSink), mirroring the teacher's config/config.go.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`

	InfluxEnabled bool   `json:"influx_enabled"`
	InfluxURL     string `json:"influx_url"`
	InfluxToken   string `json:"influx_token"`
	InfluxOrg     string `json:"influx_org"`
	InfluxBucket  string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9090"
	}
}

// Validate checks the fields required when a sink is enabled.
func (c MetricsConfig) Validate() error {
	if c.InfluxEnabled {
		if c.InfluxURL == "" || c.InfluxToken == "" || c.InfluxOrg == "" || c.InfluxBucket == "" {
			return fmt.Errorf("config: influx_url, influx_token, influx_org, and influx_bucket are required when influx_enabled is set")
		}
	}
	return nil
}

// LoggingConfig selects the dispatch/auction log store backend (§0 "optional
// dispatch-log sink"), mirroring the teacher's config/logging.go.
type LoggingConfig struct {
	// Backend selects the log store type: "jsonl", "sqlite", or "" (disabled).
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

// Validate checks mandatory fields when a backend is configured.
func (c LoggingConfig) Validate() error {
	if c.Backend == "" {
		return nil
	}
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("config: unknown dispatch log backend %q", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("config: dispatch log path is required when backend is set")
	}
	return nil
}

// Config is the root configuration loaded by Load.
type Config struct {
	Bus        string            `json:"bus"` // "mqtt" or "loopback"
	MQTT       mqtt.Config       `json:"mqtt"`
	Dispatcher dispatcher.Config `json:"dispatcher"`
	Fleets     []fleet.Config    `json:"fleets"`
	Metrics    MetricsConfig     `json:"metrics"`
	Logging    LoggingConfig     `json:"logging"`
}

// Load reads path (YAML or JSON), applies K_-prefixed environment overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("config: unsupported format %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills in values Load's callers may reasonably omit.
func (c *Config) SetDefaults() {
	if c.Bus == "" {
		c.Bus = "mqtt"
	}
	if c.Dispatcher.BiddingTimeWindowSeconds <= 0 {
		c.Dispatcher.BiddingTimeWindowSeconds = 2
	}
	if c.Dispatcher.TerminatedTasksMaxSize <= 0 {
		c.Dispatcher.TerminatedTasksMaxSize = 100
	}
	if c.Dispatcher.PublishActiveTasksPeriodSeconds <= 0 {
		c.Dispatcher.PublishActiveTasksPeriodSeconds = 2
	}
	c.Metrics.SetDefaults()
}

// Validate checks required fields across the whole config tree.
func (c Config) Validate() error {
	if c.Bus != "mqtt" && c.Bus != "loopback" {
		return fmt.Errorf("config: unknown bus %q", c.Bus)
	}
	if len(c.Fleets) == 0 {
		return fmt.Errorf("config: at least one fleet is required")
	}
	seen := make(map[string]bool, len(c.Fleets))
	for _, f := range c.Fleets {
		if f.Name == "" {
			return fmt.Errorf("config: fleet name is required")
		}
		if seen[f.Name] {
			return fmt.Errorf("config: duplicate fleet name %q", f.Name)
		}
		seen[f.Name] = true
		if len(f.Waypoints) == 0 {
			return fmt.Errorf("config: fleet %q has no waypoints", f.Name)
		}
		if !f.TaskPlanner.Validate() {
			return fmt.Errorf("config: fleet %q has invalid task_planner params", f.Name)
		}
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}
