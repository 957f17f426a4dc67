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

	"github.com/macmarek/scheduling-assistant/core/metrics"
	"github.com/macmarek/scheduling-assistant/core/monitoring"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
	"github.com/macmarek/scheduling-assistant/infra/intake"
	"github.com/macmarek/scheduling-assistant/infra/mqtt"
)

// Config is the root configuration of the service and the CLI.
type Config struct {
	Scheduler scheduler.Config  `json:"scheduler"`
	RunLog    runlog.Config     `json:"run_log"`
	Metrics   metrics.Config    `json:"metrics"`
	MQTT      mqtt.Config       `json:"mqtt"`
	API       APIConfig         `json:"api"`
	Sentry    monitoring.Config `json:"sentry"`
	Intake    intake.Config     `json:"mqtt_intake"`
}

// APIConfig configures the HTTP server of serve mode.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token protects /api/runs with a bearer token when set.
	Token string `json:"token"`
	// MaxBodyKB bounds request bodies of /api/schedule.
	MaxBodyKB int `json:"max_body_kb"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxBodyKB <= 0 {
		c.MaxBodyKB = 1024
	}
}

// Default returns a configuration with every section defaulted, used when
// no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	c.Scheduler.SetDefaults()
	c.RunLog.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
	c.Intake.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	if err := c.RunLog.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if c.Intake.Enabled && !c.MQTT.Enabled() {
		return fmt.Errorf("mqtt_intake requires mqtt.broker")
	}
	return c.Intake.Validate()
}

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
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
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
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
