package chat

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/codes"

	"github.com/mohammad-safakhou/askweb/internal/telemetry"
	"github.com/mohammad-safakhou/askweb/models"
	"github.com/mohammad-safakhou/askweb/provider"
)

// DefaultMaxSteps bounds a run when no explicit cap is configured.
const DefaultMaxSteps = 10

// Driver owns the model/tool loop for one conversation turn. Each Run
// produces a finite sequence of events terminated by done or error.
type Driver struct {
	Provider     provider.Provider
	Registry     *Registry
	MaxSteps     int
	SystemPrompt string
	Logger       *log.Logger
	Metrics      *telemetry.Metrics
}

// Run executes the loop against the given history. The returned channel is
// closed after the terminal event; the caller is expected to drain it.
func (d *Driver) Run(ctx context.Context, history []models.Message) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		d.run(ctx, history, events)
	}()
	return events
}

func (d *Driver) run(ctx context.Context, history []models.Message, events chan<- Event) {
	tracer := telemetry.Tracer("chat")
	ctx, span := tracer.Start(ctx, "driver.run")
	defer span.End()

	maxSteps := d.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	msgs := make([]models.Message, len(history))
	copy(msgs, history)

	var answer strings.Builder
	steps := 0
	outcome := "done"

	defer func() {
		span.SetAttributes(telemetry.Int("steps", steps), telemetry.String("outcome", outcome))
		if d.Metrics != nil {
			d.Metrics.ChatRequests.WithLabelValues(outcome).Inc()
			d.Metrics.ChatSteps.Observe(float64(steps))
		}
	}()

	defs := d.Registry.Definitions()
	for steps < maxSteps {
		steps++

		resp, err := d.Provider.ChatStream(ctx, provider.ChatRequest{
			System:   d.SystemPrompt,
			Messages: msgs,
			Tools:    defs,
		}, func(delta string) error {
			answer.WriteString(delta)
			if !d.emit(ctx, events, Event{Type: EventText, Text: delta}) {
				return context.Cause(ctx)
			}
			return nil
		})
		if err != nil {
			outcome = "error"
			span.SetStatus(codes.Error, err.Error())
			if d.Logger != nil {
				d.Logger.Printf("model invocation failed at step %d: %v", steps, err)
			}
			events <- Event{Type: EventError, Err: err}
			return
		}

		msgs = append(msgs, resp)

		calls := resp.ToolCalls()
		if len(calls) == 0 {
			events <- Event{Type: EventDone, Text: answer.String(), Messages: msgs}
			return
		}

		for i := range calls {
			call := calls[i]
			if !d.emit(ctx, events, Event{Type: EventToolCall, ToolCall: &call}) {
				outcome = "error"
				events <- Event{Type: EventError, Err: context.Cause(ctx)}
				return
			}
		}

		results := d.executeAll(ctx, calls)
		for i := range results {
			res := results[i]
			msgs = append(msgs, models.NewToolResultMessage(res))
			if !d.emit(ctx, events, Event{Type: EventToolResult, ToolResult: &res}) {
				outcome = "error"
				events <- Event{Type: EventError, Err: context.Cause(ctx)}
				return
			}
		}
	}

	// Step cap reached: surface whatever text accumulated rather than
	// failing the run.
	if d.Logger != nil {
		d.Logger.Printf("step cap %d reached, ending run", maxSteps)
	}
	events <- Event{Type: EventDone, Text: answer.String(), Messages: msgs}
}

// executeAll runs every call of one step concurrently and returns the
// results in invocation order. Failures are folded into the payloads.
func (d *Driver) executeAll(ctx context.Context, calls []models.ToolCall) []models.ToolResult {
	results := make([]models.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func(i int, call models.ToolCall) {
			defer wg.Done()
			payload, err := d.Registry.Dispatch(ctx, call.Name, call.Args)
			if err != nil {
				payload = errorPayload(err)
			}
			results[i] = models.ToolResult{CallID: call.ID, Name: call.Name, Payload: payload}
		}(i, calls[i])
	}
	wg.Wait()

	return results
}

// errorPayload renders a tool failure as result data so the model can react
// to it instead of the run aborting.
func errorPayload(err error) json.RawMessage {
	body := map[string]string{"error": err.Error()}
	if te, ok := err.(*ToolError); ok {
		body["error"] = te.Message
		body["kind"] = string(te.Kind)
	}
	payload, merr := json.Marshal(body)
	if merr != nil {
		return json.RawMessage(`{"error":"tool failed"}`)
	}
	return payload
}

// emit delivers a non-terminal event, giving up once the run is cancelled.
// Terminal Done and Error events are sent unconditionally instead: the
// consumer is required to drain the channel, and a select here would race
// an already-cancelled context and sometimes swallow the final event.
func (d *Driver) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
