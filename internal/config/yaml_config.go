package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the optional config.yaml file.
type YAMLConfig struct {
	Limits LimitsConfig `yaml:"limits"`
	Seed   []SeedConfig `yaml:"seed"`
}

// LimitsConfig bounds the "limit" query parameter of read endpoints.
type LimitsConfig struct {
	Default      int `yaml:"default"`      // Used when the request omits a limit
	Max          int `yaml:"max"`          // Upper bound for any requested limit
	Autocomplete int `yaml:"autocomplete"` // Default limit for autocomplete
}

// SeedConfig is a keyword recorded at startup in development.
type SeedConfig struct {
	Keyword string `yaml:"keyword"`
	Count   int64  `yaml:"count"`
}

// DefaultYAMLConfig returns the settings used when no file is present.
func DefaultYAMLConfig() *YAMLConfig {
	cfg := &YAMLConfig{}
	cfg.applyDefaults()
	return cfg
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns the defaults without error if the file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return loadYAMLConfig(getEnv("CONFIG_FILE", "config.yaml"))
}

func loadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return DefaultYAMLConfig(), nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *YAMLConfig) applyDefaults() {
	if c.Limits.Default <= 0 {
		c.Limits.Default = 10
	}
	if c.Limits.Max <= 0 {
		c.Limits.Max = 100
	}
	if c.Limits.Autocomplete <= 0 {
		c.Limits.Autocomplete = c.Limits.Default
	}
}

// SeedIncrements returns the seed keywords as a batch of increments, in file
// order for the recent list. Entries with an empty keyword are skipped and a
// non-positive count is treated as 1.
func (c *YAMLConfig) SeedIncrements() (map[string]int64, []string) {
	if c == nil || len(c.Seed) == 0 {
		return nil, nil
	}
	increments := make(map[string]int64, len(c.Seed))
	var recent []string
	for _, s := range c.Seed {
		if s.Keyword == "" {
			continue
		}
		n := s.Count
		if n <= 0 {
			n = 1
		}
		increments[s.Keyword] += n
		recent = append(recent, s.Keyword)
	}
	return increments, recent
}
