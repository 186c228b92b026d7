package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/compact"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 15 * time.Second

// Gateway executes one turn's worth of finalized tool calls.
type Gateway struct {
	registry *Registry
	timeout  time.Duration
	metadata Metadata
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout overrides the per-call execution timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMetadata sets the opaque bag forwarded into every handler.
func WithMetadata(meta Metadata) GatewayOption {
	return func(g *Gateway) {
		g.metadata = meta
	}
}

// NewGateway creates a Gateway over the given registry.
func NewGateway(registry *Registry, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		registry: registry,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Registry returns the gateway's tool registry.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// TurnResult is the outcome of processing one turn of tool calls.
type TurnResult struct {
	// Results holds one result per call, in the original call order,
	// each tagged with its originating call id.
	Results []ai.ToolResult

	// Prune is set when any result carried a pruning directive. The
	// caller applies compaction once, after the whole turn.
	Prune *compact.Summary
}

// ExecuteTurn resolves, validates, and executes every call of one turn.
//
// Identical (name, serialized-arguments) calls within the turn execute
// the underlying tool once; every requesting call id receives the same
// content. The dedupe cache lives only for this turn. Anomalies such
// as an unknown tool, schema-invalid arguments, a handler failure, or
// a timeout become error-tagged results, never Go errors.
func (g *Gateway) ExecuteTurn(ctx context.Context, calls []ai.ToolCall) TurnResult {
	type cached struct {
		content string
		isError bool
		prune   *compact.Summary
	}
	cache := make(map[string]cached, len(calls))

	var turn TurnResult
	for _, call := range calls {
		key := call.Name + "\x00" + call.Arguments

		c, hit := cache[key]
		if !hit {
			outcome := g.executeOne(ctx, call)
			c = cached{
				content: outcome.content,
				isError: outcome.isError,
				prune:   outcome.prune,
			}
			cache[key] = c
		}

		turn.Results = append(turn.Results, ai.ToolResult{
			ToolCallID: call.ID,
			Content:    c.content,
			IsError:    c.isError,
		})
		if c.prune != nil && turn.Prune == nil {
			turn.Prune = c.prune
		}
	}
	return turn
}

type callOutcome struct {
	content string
	isError bool
	prune   *compact.Summary
}

func (g *Gateway) executeOne(ctx context.Context, call ai.ToolCall) callOutcome {
	spec, ok := g.registry.GetTool(call.Name)
	if !ok {
		return callOutcome{
			content: fmt.Sprintf("tool not found: %s", call.Name),
			isError: true,
		}
	}

	if err := validateArguments(spec.Parameters, call.Arguments); err != nil {
		return callOutcome{
			content: fmt.Sprintf("invalid arguments for %s: %v", call.Name, err),
			isError: true,
		}
	}

	handler, _ := g.registry.Get(call.Name)

	execCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type handlerReturn struct {
		outcome Outcome
		err     error
	}
	done := make(chan handlerReturn, 1)

	// The handler may not honor its context. Run it on the side and
	// abandon its result on timeout; in-flight work is not forcibly
	// killed, only discarded.
	go func() {
		outcome, err := handler(execCtx, call, g.metadata)
		done <- handlerReturn{outcome, err}
	}()

	select {
	case ret := <-done:
		if ret.err != nil {
			return callOutcome{
				content: fmt.Sprintf("tool %s failed: %v", call.Name, ret.err),
				isError: true,
			}
		}
		return callOutcome{
			content: ret.outcome.Content,
			prune:   ret.outcome.Prune,
		}
	case <-execCtx.Done():
		return callOutcome{
			content: fmt.Sprintf("tool %s timed out after %s", call.Name, g.timeout),
			isError: true,
		}
	}
}

// validateArguments checks the argument JSON against the tool's
// parameter schema. A tool spec without a usable schema validates
// everything: spec quality is the host's problem, not grounds to block
// a call. Unparsable argument JSON is treated as an empty object, the
// same substitution the loop applies when finalizing fragments.
func validateArguments(schemaJSON json.RawMessage, args string) error {
	if len(schemaJSON) == 0 {
		return nil
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil
	}

	if args == "" {
		args = "{}"
	}
	var instance any
	if err := json.Unmarshal([]byte(args), &instance); err != nil {
		instance = map[string]any{}
	}

	return resolved.Validate(instance)
}
