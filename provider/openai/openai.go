package openai_provider

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/mohammad-safakhou/askweb/config"
	"github.com/mohammad-safakhou/askweb/models"
)

// ToolDefinition declares one callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest carries one model invocation.
type ChatRequest struct {
	System   string
	Messages []models.Message
	Tools    []ToolDefinition
}

// Client implements the provider interface on the official OpenAI SDK with
// streaming completions.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewClient creates an OpenAI chat client from configuration.
func NewClient(cfg config.OpenAIConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &Client{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// ChatStream runs one streaming completion. Text deltas are forwarded to
// onDelta in arrival order; tool-call fragments are accumulated by index and
// returned on the final assistant message.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, onDelta func(string) error) (models.Message, error) {
	params := openai.ChatCompletionNewParams{
		Messages: c.encodeMessages(req),
		Model:    openai.ChatModel(c.model),
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	if c.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(c.maxTokens)
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  shared.FunctionParameters(t.Parameters),
			}))
		}
		params.Tools = tools
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var text strings.Builder
	type callAcc struct {
		id   string
		name string
		args strings.Builder
	}
	var calls []*callAcc

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			text.WriteString(delta.Content)
			if onDelta != nil {
				if err := onDelta(delta.Content); err != nil {
					return models.Message{}, err
				}
			}
		}
		for _, tc := range delta.ToolCalls {
			idx := int(tc.Index)
			for len(calls) <= idx {
				calls = append(calls, &callAcc{})
			}
			if tc.ID != "" {
				calls[idx].id = tc.ID
			}
			if tc.Function.Name != "" {
				calls[idx].name = tc.Function.Name
			}
			// arguments arrive as JSON fragments; concatenate, don't parse
			calls[idx].args.WriteString(tc.Function.Arguments)
		}
	}
	if err := stream.Err(); err != nil {
		return models.Message{}, fmt.Errorf("openai completion: %w", err)
	}

	msg := models.Message{Role: models.RoleAssistant}
	if text.Len() > 0 {
		msg.Parts = append(msg.Parts, models.TextPart{Text: text.String()})
	}
	for i, acc := range calls {
		args := acc.args.String()
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		id := acc.id
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		msg.Parts = append(msg.Parts, models.ToolCallPart{Call: models.ToolCall{
			ID:   id,
			Name: acc.name,
			Args: []byte(args),
		}})
	}
	return msg, nil
}

func (c *Client) encodeMessages(req ChatRequest) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Text()))
		case models.RoleUser:
			out = append(out, openai.UserMessage(m.Text()))
		case models.RoleAssistant:
			am := openai.AssistantMessage(m.Text())
			if tcs := m.ToolCalls(); len(tcs) > 0 && am.OfAssistant != nil {
				encoded := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(tcs))
				for _, tc := range tcs {
					encoded = append(encoded, openai.ChatCompletionMessageToolCallUnionParam{
						OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
							ID: tc.ID,
							Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
								Name:      tc.Name,
								Arguments: string(tc.Args),
							},
						},
					})
				}
				am.OfAssistant.ToolCalls = encoded
			}
			out = append(out, am)
		case models.RoleTool:
			// one tool message per result part, preserving part order
			for _, tr := range m.ToolResults() {
				out = append(out, openai.ToolMessage(string(tr.Payload), tr.CallID))
			}
		}
	}
	return out
}
