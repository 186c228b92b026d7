package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/tool"
)

// Remote is a connection to an MCP server with a locally cached tool
// list. It is safe for concurrent use; Refresh updates the cache.
type Remote struct {
	client *client.Client
	mu     sync.RWMutex
	tools  map[string]ai.Tool
}

// Connect creates a Remote over a stdio MCP server subprocess.
func Connect(ctx context.Context, command string, env []string, args ...string) (*Remote, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}
	return connect(ctx, c)
}

// ConnectSSE creates a Remote over an SSE MCP endpoint.
func ConnectSSE(ctx context.Context, baseURL string) (*Remote, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("create sse mcp client: %w", err)
	}
	return connect(ctx, c)
}

// ConnectClient creates a Remote from an existing MCP client. The
// client is started and initialized here.
func ConnectClient(ctx context.Context, c *client.Client) (*Remote, error) {
	return connect(ctx, c)
}

func connect(ctx context.Context, c *client.Client) (*Remote, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "strand-mcp-client",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	r := &Remote{
		client: c,
		tools:  make(map[string]ai.Tool),
	}
	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}
	return r, nil
}

// Close closes the connection to the MCP server.
func (r *Remote) Close() error {
	return r.client.Close()
}

// Refresh fetches the current tool list from the server, replacing the
// local cache.
func (r *Remote) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = make(map[string]ai.Tool, len(result.Tools))
	for _, t := range result.Tools {
		r.tools[t.Name] = toSpec(t)
	}
	return nil
}

// Tools returns the cached tool specs.
func (r *Remote) Tools() []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// Has returns true if the server exposes a tool with the given name.
func (r *Remote) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Call invokes a tool on the remote server. Server-side failures come
// back as error-tagged text in the outcome, matching how the gateway
// reports local anomalies.
func (r *Remote) Call(ctx context.Context, call ai.ToolCall) (tool.Outcome, error) {
	result, err := r.client.CallTool(ctx, toCallRequest(call))
	if err != nil {
		return tool.Outcome{}, err
	}
	if result != nil && result.IsError {
		return tool.Outcome{}, errors.New(resultText(result))
	}
	return tool.Outcome{Content: resultText(result)}, nil
}

// RegisterAll registers every cached remote tool into the registry,
// proxying execution through this connection. Names already present in
// the registry cause an error and stop registration.
func (r *Remote) RegisterAll(registry *tool.Registry) error {
	for _, spec := range r.Tools() {
		handler := func(ctx context.Context, call ai.ToolCall, _ tool.Metadata) (tool.Outcome, error) {
			return r.Call(ctx, call)
		}
		if err := registry.Register(spec, handler); err != nil {
			return err
		}
	}
	return nil
}
