package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderConfig describes one upstream inventory endpoint.
type ProviderConfig struct {
	Name      string `yaml:"name"`
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Config is the server configuration, loaded from YAML with environment
// overrides for the values that differ per deployment.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Search struct {
		DebounceMs        int `yaml:"debounce_ms"`
		ProviderTimeoutMs int `yaml:"provider_timeout_ms"`
		RateLimitCap      int `yaml:"rate_limit_cap"`
		RateLimitRefillS  int `yaml:"rate_limit_refill_s"`
	} `yaml:"search"`
	CRM struct {
		BaseURL   string `yaml:"base_url"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"crm"`
	Providers []ProviderConfig `yaml:"providers"`
}

// Load reads the YAML file at path, falling back to defaults when the file
// is absent, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if p := os.Getenv("PORT"); p != "" {
		cfg.Server.Addr = ":" + p
	}
	if u := os.Getenv("CRM_BASE_URL"); u != "" {
		cfg.CRM.BaseURL = u
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Search.DebounceMs = 300
	cfg.Search.ProviderTimeoutMs = 4000
	cfg.Search.RateLimitCap = 10
	cfg.Search.RateLimitRefillS = 60
	cfg.CRM.TimeoutMs = 2000
	return cfg
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Search.DebounceMs) * time.Millisecond
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Search.ProviderTimeoutMs) * time.Millisecond
}

func (c *Config) CRMTimeout() time.Duration {
	return time.Duration(c.CRM.TimeoutMs) * time.Millisecond
}
