package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	require.Len(t, cfg.Agents, 3)
	assert.Equal(t, "OpenAI", cfg.Agents[0].Name)
	assert.Equal(t, "groq", cfg.Agents[1].Provider)
	assert.Equal(t, 3, cfg.ValidationRetries)
	assert.Equal(t, 2, cfg.ConfidenceRetries)
	assert.Equal(t, 5, cfg.MaxCodes)
	assert.Equal(t, 50, cfg.DefaultScore)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Len(t, cfg.Agents, 3)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icdcheck.json")
	content := `{
		"agents": [{"name": "Gemini", "provider": "gemini", "model": "gemini-2.5-flash", "api_key": "k"}],
		"validation_retries": 5,
		"max_codes": 3
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "gemini", cfg.Agents[0].Provider)
	assert.Equal(t, 5, cfg.ValidationRetries)
	assert.Equal(t, 3, cfg.MaxCodes)
	// Unset fields still pick up defaults.
	assert.Equal(t, 2, cfg.ConfidenceRetries)
	assert.Equal(t, 50, cfg.DefaultScore)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "icdcheck.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFillMissingKeys(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-env-key")
	t.Setenv("OPENAI_API_KEY", "openai-env-key")

	cfg := &Config{Agents: []AgentConfig{
		{Name: "A", Provider: "groq", Model: "m"},
		{Name: "B", Provider: "openai", Model: "m", APIKey: "from-file"},
	}}
	cfg.applyEnvOverrides()

	assert.Equal(t, "groq-env-key", cfg.Agents[0].APIKey)
	// Config file keys win over environment.
	assert.Equal(t, "from-file", cfg.Agents[1].APIKey)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no agents", Config{ValidationRetries: 3, MaxCodes: 5}},
		{"empty agent name", Config{Agents: []AgentConfig{{Provider: "groq", Model: "m"}}, ValidationRetries: 3}},
		{"duplicate names", Config{Agents: []AgentConfig{
			{Name: "A", Provider: "groq", Model: "m"},
			{Name: "A", Provider: "openai", Model: "m"},
		}, ValidationRetries: 3}},
		{"unknown provider", Config{Agents: []AgentConfig{{Name: "A", Provider: "cohere", Model: "m"}}, ValidationRetries: 3}},
		{"missing model", Config{Agents: []AgentConfig{{Name: "A", Provider: "groq"}}, ValidationRetries: 3}},
		{"bad default score", Config{Agents: []AgentConfig{{Name: "A", Provider: "groq", Model: "m"}}, ValidationRetries: 3, DefaultScore: 101}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}
