// Package tool validates and executes model-requested tool calls.
//
// The [Registry] holds the tool specs and handlers supplied by the host;
// the [Gateway] runs one turn's worth of calls against it: resolving
// names, validating arguments against each spec's JSON schema,
// deduplicating identical calls, and bounding execution time. Every
// anomaly comes back as an error-tagged result, never a Go error.
package tool

import (
	"context"
	"encoding/json"
	"sync"

	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/compact"
)

// Metadata is the opaque per-invocation bag the host supplies; it is
// forwarded unmodified into every handler.
type Metadata map[string]any

// Outcome is what a handler returns on success.
type Outcome struct {
	// Content is the result text fed back to the model.
	Content string

	// Prune, when set, asks the loop to compact the conversation with
	// this summary once the whole turn has been processed.
	Prune *compact.Summary
}

// Handler executes a tool call. The context carries the execution
// timeout; the call holds the tool name, id, and finalized arguments.
type Handler func(ctx context.Context, call ai.ToolCall, meta Metadata) (Outcome, error)

// Registration pairs a tool spec with its handler.
type Registration struct {
	Tool    ai.Tool
	Handler Handler
}

type registeredTool struct {
	tool    ai.Tool
	handler Handler
}

// Registry manages registered tools and their handlers.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registeredTool)}
}

// Register adds a tool with its handler to the registry.
// Returns an error if a tool with the same name is already registered.
func (r *Registry) Register(t ai.Tool, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &ErrToolAlreadyRegistered{Name: t.Name}
	}

	r.tools[t.Name] = registeredTool{tool: t, handler: handler}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t ai.Tool, handler Handler) {
	if err := r.Register(t, handler); err != nil {
		panic(err)
	}
}

// Add registers a Registration, panicking on duplicate names.
func (r *Registry) Add(regs ...Registration) {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
}

// Unregister removes a tool from the registry.
// It is a no-op if the tool is not registered.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get retrieves a handler by tool name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return rt.handler, true
}

// GetTool retrieves a tool spec by name.
func (r *Registry) GetTool(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return ai.Tool{}, false
	}
	return rt.tool, true
}

// Tools returns all registered tool specs, for passing to a provider.
func (r *Registry) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.tools))
	for _, rt := range r.tools {
		tools = append(tools, rt.tool)
	}
	return tools
}

// Names returns the names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Has returns true if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// TypedHandler executes a tool call with typed, already-validated arguments.
type TypedHandler[T any] func(ctx context.Context, args T, meta Metadata) (Outcome, error)

// RegisterFunc registers a tool with a typed handler that automatically
// unmarshals the argument JSON into T.
func RegisterFunc[T any](r *Registry, name, description string, params json.RawMessage, fn TypedHandler[T]) error {
	t := ai.Tool{Name: name, Description: description, Parameters: params}

	handler := func(ctx context.Context, call ai.ToolCall, meta Metadata) (Outcome, error) {
		var args T
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return Outcome{}, err
		}
		return fn(ctx, args, meta)
	}

	return r.Register(t, handler)
}
