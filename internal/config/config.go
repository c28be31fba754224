// Package config holds all icdcheck configuration, loaded from a single
// JSON file with environment-variable fallbacks for API keys.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "icdcheck.json"

// AgentConfig describes one named agent: which backend serves it, which
// model it runs, and optionally a default input document for `run`.
type AgentConfig struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // openai, groq, gemini
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Input    string `json:"input,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	Agents []AgentConfig `json:"agents"`

	// Retry bounds for the two pipeline loops.
	ValidationRetries int `json:"validation_retries,omitempty"`
	ConfidenceRetries int `json:"confidence_retries,omitempty"`

	// Candidate codes per document are truncated to this many.
	MaxCodes int `json:"max_codes,omitempty"`

	// Fallback score when the confidence loop is exhausted.
	DefaultScore int `json:"default_score,omitempty"`

	// Run history database. Empty disables persistence.
	StorePath string `json:"store_path,omitempty"`

	// Optional YAML file replacing built-in prompt templates.
	PromptOverrides string `json:"prompt_overrides,omitempty"`
}

// Default returns the stock three-agent configuration.
func Default() *Config {
	cfg := &Config{
		Agents: []AgentConfig{
			{Name: "OpenAI", Provider: "openai", Model: "gpt-4o"},
			{Name: "Mistral", Provider: "groq", Model: "llama-3.3-70b-versatile"},
			{Name: "LLaMA", Provider: "groq", Model: "llama3-70b-8192"},
		},
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg
}

// Load reads configuration from path. A missing file yields the default
// configuration rather than an error; a present but malformed file fails.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ValidationRetries == 0 {
		c.ValidationRetries = 3
	}
	if c.ConfidenceRetries == 0 {
		c.ConfidenceRetries = 2
	}
	if c.MaxCodes == 0 {
		c.MaxCodes = 5
	}
	if c.DefaultScore == 0 {
		c.DefaultScore = 50
	}
	if c.StorePath == "" {
		c.StorePath = "icdcheck.db"
	}
}

// providerEnv maps a provider to its API key environment variable.
var providerEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"groq":   "GROQ_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

// applyEnvOverrides fills missing agent API keys from the environment.
// Keys present in the config file win over the environment.
func (c *Config) applyEnvOverrides() {
	for i := range c.Agents {
		if c.Agents[i].APIKey != "" {
			continue
		}
		if envVar, ok := providerEnv[c.Agents[i].Provider]; ok {
			c.Agents[i].APIKey = os.Getenv(envVar)
		}
	}
}

// Validate checks structural invariants. API keys are deliberately not
// required here; commands that never contact a backend (layout, history)
// must work without them.
func (c *Config) Validate() error {
	if len(c.Agents) == 0 {
		return fmt.Errorf("no agents configured")
	}
	seen := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("agent with empty name")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
		if _, ok := providerEnv[a.Provider]; !ok {
			return fmt.Errorf("agent %q: unknown provider %q", a.Name, a.Provider)
		}
		if a.Model == "" {
			return fmt.Errorf("agent %q: model is required", a.Name)
		}
	}
	if c.ValidationRetries < 1 || c.ConfidenceRetries < 0 {
		return fmt.Errorf("retry bounds out of range")
	}
	if c.DefaultScore < 0 || c.DefaultScore > 100 {
		return fmt.Errorf("default_score must be in [0,100]")
	}
	return nil
}
