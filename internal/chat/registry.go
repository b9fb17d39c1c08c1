package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/codes"

	"github.com/mohammad-safakhou/askweb/internal/telemetry"
	"github.com/mohammad-safakhou/askweb/provider"
)

// Tool is one entry in the closed tool set: it accepts validated JSON
// arguments plus a cancellation context and produces a JSON-serializable
// result or fails.
type Tool interface {
	Name() string
	Description() string
	// Schema returns the JSON-schema object describing the tool's arguments.
	// It is compiled once at registration and must not change afterwards.
	Schema() map[string]any
	Exec(ctx context.Context, args json.RawMessage) (any, error)
}

// ErrorKind classifies structured tool errors.
type ErrorKind string

const (
	KindInvalidArguments ErrorKind = "invalid_arguments"
	KindUnknownTool      ErrorKind = "unknown_tool"
	KindProviderError    ErrorKind = "provider_error"
	KindCancelled        ErrorKind = "cancelled"
)

// ToolError is a structured tool failure. It is data, not a driver fault:
// the driver folds it into the tool result payload handed back to the model.
type ToolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ToolError) Error() string { return string(e.Kind) + ": " + e.Message }

// Registry maps tool names to validated executors. The tool set is fixed per
// request; registration happens at wiring time, dispatch at run time.
type Registry struct {
	Logger  *log.Logger
	Metrics *telemetry.Metrics

	order []string
	tools map[string]registeredTool
}

type registeredTool struct {
	tool   Tool
	schema *gojsonschema.Schema
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]registeredTool{}}
}

// Register adds a tool, compiling its argument schema.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(t.Schema()))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", name, err)
	}
	r.tools[name] = registeredTool{tool: t, schema: schema}
	r.order = append(r.order, name)
	return nil
}

// Definitions returns the declared tools in registration order, the shape
// sent to the model on every step. It must not change mid-conversation.
func (r *Registry) Definitions() []provider.ToolDefinition {
	out := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name].tool
		out = append(out, provider.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return out
}

// Dispatch validates rawArgs against the tool's schema and executes it.
// Failures come back as *ToolError; the underlying tool is never invoked on
// a validation failure.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs json.RawMessage) (json.RawMessage, error) {
	tracer := telemetry.Tracer("chat")
	ctx, span := tracer.Start(ctx, "registry.dispatch")
	span.SetAttributes(telemetry.String("tool", name))
	defer span.End()

	payload, err := r.dispatch(ctx, name, rawArgs)
	outcome := "success"
	if err != nil {
		outcome = "error"
		span.SetStatus(codes.Error, err.Error())
		if r.Logger != nil {
			r.Logger.Printf("tool %s failed: %v", name, err)
		}
	}
	if r.Metrics != nil {
		r.Metrics.ToolExecutions.WithLabelValues(name, outcome).Inc()
	}
	return payload, err
}

func (r *Registry) dispatch(ctx context.Context, name string, rawArgs json.RawMessage) (json.RawMessage, error) {
	reg, ok := r.tools[name]
	if !ok {
		return nil, &ToolError{Kind: KindUnknownTool, Message: fmt.Sprintf("unknown tool %q", name)}
	}

	if len(rawArgs) == 0 {
		rawArgs = []byte("{}")
	}
	validation, err := reg.schema.Validate(gojsonschema.NewBytesLoader(rawArgs))
	if err != nil {
		return nil, &ToolError{Kind: KindInvalidArguments, Message: err.Error()}
	}
	if !validation.Valid() {
		msgs := make([]string, 0, len(validation.Errors()))
		for _, desc := range validation.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, &ToolError{Kind: KindInvalidArguments, Message: strings.Join(msgs, "; ")}
	}

	result, err := reg.tool.Exec(ctx, rawArgs)
	if err != nil {
		// Only the tool's own error decides: a genuine failure racing a
		// deadline must not be relabeled as cancellation.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &ToolError{Kind: KindCancelled, Message: "request cancelled"}
		}
		return nil, &ToolError{Kind: KindProviderError, Message: err.Error()}
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, &ToolError{Kind: KindProviderError, Message: fmt.Sprintf("encode result: %v", err)}
	}
	return payload, nil
}
