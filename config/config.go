// Package config loads the process configuration from YAML, with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Store struct {
		Dir string `yaml:"dir"`
	} `yaml:"store"`

	Kafka struct {
		Brokers         []string `yaml:"brokers"`
		EventsTopic     string   `yaml:"events_topic"`
		ExecutionsTopic string   `yaml:"executions_topic"`
	} `yaml:"kafka"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Auth struct {
		Secret string `yaml:"secret"`
	} `yaml:"auth"`

	Clock struct {
		TickSeconds uint64 `yaml:"tick_seconds"`
	} `yaml:"clock"`

	Index struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"index"`
}

// Load reads and validates the config at path. VOLTEX_AUTH_SECRET
// overrides the file so the secret can stay out of it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if v := os.Getenv("VOLTEX_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the baseline a config file overrides.
func Default() *Config {
	cfg := &Config{}
	cfg.Store.Dir = "./data"
	cfg.Server.Addr = ":8080"
	cfg.Kafka.EventsTopic = "auction.events"
	cfg.Kafka.ExecutionsTopic = "auction.executions"
	cfg.Clock.TickSeconds = 6
	cfg.Index.Capacity = 10
	return cfg
}

func (c *Config) Validate() error {
	if c.Store.Dir == "" {
		return fmt.Errorf("store dir is required")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required (file or VOLTEX_AUTH_SECRET)")
	}
	if c.Clock.TickSeconds == 0 || 60%c.Clock.TickSeconds != 0 {
		return fmt.Errorf("tick_seconds must divide 60, got %d", c.Clock.TickSeconds)
	}
	if c.Index.Capacity <= 0 {
		return fmt.Errorf("index capacity must be positive")
	}
	if len(c.Kafka.Brokers) > 0 && (c.Kafka.EventsTopic == "" || c.Kafka.ExecutionsTopic == "") {
		return fmt.Errorf("kafka topics are required when brokers are set")
	}
	return nil
}

// TicksPerMinute derives the minute-to-tick conversion ratio used for
// auction periods.
func (c *Config) TicksPerMinute() uint64 {
	return 60 / c.Clock.TickSeconds
}
