package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/askweb/config"
	"github.com/mohammad-safakhou/askweb/models"
	openai_provider "github.com/mohammad-safakhou/askweb/provider/openai"
)

// Client represents different LLM providers.
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
)

// ToolDefinition declares one callable tool to the model. Parameters is a
// JSON-schema object describing the arguments.
type ToolDefinition = openai_provider.ToolDefinition

// ChatRequest carries one model invocation: the system prompt, the full
// message history and the declared tools.
type ChatRequest = openai_provider.ChatRequest

// Provider is the interface all LLM implementations satisfy. ChatStream
// performs one completion call, forwarding text deltas to onDelta as they
// arrive, and returns the finished assistant message (which may carry tool
// calls instead of, or in addition to, text). The call is not retried here;
// a failure is the caller's to handle.
type Provider interface {
	ChatStream(ctx context.Context, req ChatRequest, onDelta func(delta string) error) (models.Message, error)
}

// NewProvider creates an LLM client from configuration.
func NewProvider(client Client, cfg config.ProvidersConfig) (Provider, error) {
	switch client {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai api key not configured (providers.openai.api_key)")
		}
		return openai_provider.NewClient(cfg.OpenAI), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
