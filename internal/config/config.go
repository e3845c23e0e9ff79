package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"crewmatch/internal/match"
)

// Config models crewmatch.yml.
type Config struct {
	Matching struct {
		Weights match.Weights `yaml:"weights"`
		// TopK bounds how many ranked candidates a match run returns per task.
		TopK int `yaml:"top_k"`
	} `yaml:"matching"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Admin     struct {
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"admin"`
		AllowNameLogin bool `yaml:"allow_name_login"`
	} `yaml:"auth"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	w := c.Matching.Weights
	if w.Skills < 0 || w.Department < 0 || w.Availability < 0 {
		return fmt.Errorf("config.matching.weights must be non-negative")
	}
	if w.Skills+w.Department+w.Availability <= 0 {
		return fmt.Errorf("config.matching.weights must not all be zero")
	}
	if c.Matching.TopK < 1 {
		return fmt.Errorf("config.matching.top_k must be at least 1")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "crewmatch.yml")
}

// Default returns the built-in configuration: 50/30/20 weights, top 5
// candidates, auth disabled until a secret is set.
func Default() *Config {
	var cfg Config
	cfg.Matching.Weights = match.DefaultWeights
	cfg.Matching.TopK = 5
	cfg.Auth.Admin.Username = "admin"
	cfg.Auth.AllowNameLogin = true
	return &cfg
}

// Load reads and validates config from a workspace, falling back to
// defaults when the file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Omitted
// matching fields keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GenerateDefault returns default config YAML for `cm config init`.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `matching:
  weights:
    skills: 50
    department: 30
    availability: 20
  top_k: 5

auth:
  # Leave jwt_secret empty to run the API without authentication (dev only).
  jwt_secret: ""
  admin:
    username: admin
    password: ""
  allow_name_login: true
`
