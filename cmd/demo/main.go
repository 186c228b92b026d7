// Command demo wires the execution core end to end: provider selection,
// tool gateway, admission control, budget tracking, and the agent loop,
// with the event stream rendered to the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	ai "github.com/strandlabs/strand"
	"github.com/strandlabs/strand/agent"
	"github.com/strandlabs/strand/budget"
	"github.com/strandlabs/strand/client"
	"github.com/strandlabs/strand/event"
	"github.com/strandlabs/strand/model"
	"github.com/strandlabs/strand/ratelimit"
	"github.com/strandlabs/strand/tool"
)

func main() {
	godotenv.Load()
	ctx := context.Background()

	provider := pickProvider()
	if provider == "" {
		fmt.Fprintln(os.Stderr, "no API key found; set ANTHROPIC_API_KEY, OPENAI_API_KEY, or GEMINI_API_KEY")
		os.Exit(1)
	}
	info := model.DefaultFor(provider)
	fmt.Printf("provider: %s  model: %s\n\n", provider, info.ID)

	p, err := client.New(ctx, client.Config{Provider: provider, Model: info.ID})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create provider: %v\n", err)
		os.Exit(1)
	}

	registry := tool.NewRegistry()
	registry.MustRegister(ai.Tool{
		Name:        "current_time",
		Description: "Get the current date and time",
		Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
	}, func(_ context.Context, _ ai.ToolCall, _ tool.Metadata) (tool.Outcome, error) {
		return tool.Outcome{Content: time.Now().Format(time.RFC1123)}, nil
	})
	gateway := tool.NewGateway(registry)

	limiter := ratelimit.New(ratelimit.NewMemoryStore())
	limiter.SetPolicy(ai.RateKey(provider, info.ID), ratelimit.Policy{
		RequestsPerMinute: 30,
		MaxConcurrent:     2,
	})

	plan := budget.Calculate(budget.TaskStandard, 10)
	session := budget.NewSession(plan, info.ID)

	loop := agent.New(p, gateway)
	events := loop.RunStream(ctx,
		[]ai.Message{
			{Role: ai.RoleSystem, Content: "You are a concise assistant."},
			{Role: ai.RoleUser, Content: "What time is it right now? Use the tool."},
		},
		agent.WithProvider(provider),
		agent.WithLimiter(limiter, ai.RateKey(provider, info.ID)),
		agent.WithSession(session),
	)

	for e := range events {
		switch e.Type {
		case event.StepStart:
			fmt.Printf("-- step %d\n", e.Step)
		case event.MessageDelta:
			fmt.Print(e.Delta)
		case event.MessageEnd:
			fmt.Println()
		case event.ToolCallStart:
			fmt.Printf("[tool %s]\n", e.ToolCall.Name)
		case event.ToolCallResult:
			fmt.Printf("[result %s]\n", e.ToolResult.Content)
		case event.UsageReport:
			fmt.Printf("[usage %d in / %d out]\n", e.Usage.InputTokens, e.Usage.OutputTokens)
		case event.RunError:
			fmt.Fprintf(os.Stderr, "run failed: %v\n", e.Error)
			os.Exit(1)
		case event.RunEnd:
			stats := session.Stats()
			fmt.Printf("\ndone (%s): %d iterations, %d tokens, $%.4f estimated\n",
				e.Message, stats.IterationsUsed, stats.TokensUsed, session.EstimatedCost())
			fmt.Printf("budget: %s\n", budget.Recommendation(stats))
		}
	}
}

func pickProvider() ai.Provider {
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		return ai.ProviderAnthropic
	case os.Getenv("OPENAI_API_KEY") != "":
		return ai.ProviderOpenAI
	case os.Getenv("GEMINI_API_KEY") != "":
		return ai.ProviderGoogle
	}
	return ""
}
