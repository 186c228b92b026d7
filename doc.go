// Package strand is the execution core for tool-calling AI agents.
//
// It drives multi-turn conversations with an external model service,
// gates outbound requests against rate-limit policy, bounds how much of
// a task's resource budget an autonomous loop may consume, and compacts
// long histories into a summary plus a recent tail.
//
// # Layout
//
// The root package holds the shared data model: [Message], [Tool],
// [ToolCall], [StreamEvent], and the categorized error taxonomy.
// The moving parts live in subpackages:
//
//   - [github.com/strandlabs/strand/provider/anthropic],
//     [github.com/strandlabs/strand/provider/openai],
//     [github.com/strandlabs/strand/provider/google]: adapters that map
//     each vendor SDK's native stream onto the canonical event sequence
//   - [github.com/strandlabs/strand/agent]: the loop controller
//   - [github.com/strandlabs/strand/tool]: tool validation and execution
//   - [github.com/strandlabs/strand/ratelimit]: admission control
//   - [github.com/strandlabs/strand/budget]: token/iteration quotas
//   - [github.com/strandlabs/strand/compact]: conversation compaction
//   - [github.com/strandlabs/strand/retry]: bounded retry with backoff
//
// # Basic Usage
//
// Stream one turn from a provider:
//
//	p := anthropic.New(anthropic.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")))
//	handle, err := p.Stream(ctx, messages, strand.WithTools(tools))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for ev := range handle.Events() {
//	    switch ev.Type {
//	    case strand.StreamChunk:
//	        fmt.Print(ev.Delta)
//	    case strand.StreamError:
//	        log.Fatal(ev.Err)
//	    }
//	}
//
// Or let the agent loop drive the whole conversation, including tool
// execution, admission control, and compaction:
//
//	loop := agent.New(p, gateway,
//	    agent.WithLimiter(limiter, "anthropic/claude-sonnet-4"),
//	    agent.WithMaxIterations(50),
//	)
//	result, err := loop.Run(ctx, messages)
package strand
