// Package agent wraps the LLM backends behind a single calling convention.
// Two wrapper families exist: an OpenAI-compatible chat-completions HTTP
// client (serving both OpenAI and Groq) and a Gemini client over the
// official genai SDK.
package agent

import (
	"context"
	"fmt"

	"icdcheck/internal/config"
)

// Client is the uniform completion interface all backends implement.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Agent is a named, configured model endpoint.
type Agent struct {
	Name   string
	Model  string
	Client Client
}

// groqBaseURL is Groq's OpenAI-compatible endpoint root.
const groqBaseURL = "https://api.groq.com/openai/v1"

// New builds an agent from its configuration.
func New(cfg config.AgentConfig) (*Agent, error) {
	var client Client
	switch cfg.Provider {
	case "openai":
		client = NewChatClient(ChatConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case "groq":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = groqBaseURL
		}
		client = NewChatClient(ChatConfig{
			APIKey:  cfg.APIKey,
			BaseURL: baseURL,
			Model:   cfg.Model,
		})
	case "gemini":
		gc, err := NewGeminiClient(cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", cfg.Name, err)
		}
		client = gc
	default:
		return nil, fmt.Errorf("agent %q: unknown provider %q", cfg.Name, cfg.Provider)
	}

	return &Agent{Name: cfg.Name, Model: cfg.Model, Client: client}, nil
}

// NewAll builds every configured agent, failing on the first bad entry.
func NewAll(cfgs []config.AgentConfig) ([]*Agent, error) {
	agents := make([]*Agent, 0, len(cfgs))
	for _, c := range cfgs {
		a, err := New(c)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}
