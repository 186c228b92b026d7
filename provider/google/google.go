// Package google adapts the Gemini API to the canonical stream event
// sequence.
//
// Gemini delivers function calls as whole parts rather than incremental
// fragments, so the decoder synthesizes the start/delta/end triple for
// each call with the full argument payload in a single delta. Call ids
// are synthesized as well since the API does not assign them.
package google

import (
	"context"
	"encoding/json"
	"fmt"

	ai "github.com/strandlabs/strand"
	"google.golang.org/genai"
)

// DefaultModel is used when the request doesn't specify one.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the Google GenAI SDK to implement ai.StreamProvider.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Gemini client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Gemini client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// Stream starts one turn and returns a cancellable handle emitting the
// canonical event sequence.
func (c *Client) Stream(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.StreamHandle, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	contents, system := convertMessages(messages)
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = convertToolChoice(options.ToolChoice)
		}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	ch := make(chan ai.StreamEvent)

	go c.decode(streamCtx, model, contents, config, ch)

	return ai.NewStreamHandle(ch, cancel), nil
}

// decode maps the native response iterator onto canonical events.
func (c *Client) decode(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig, ch chan<- ai.StreamEvent) {
	defer close(ch)

	var content string
	var finishReason string
	var usage ai.Usage
	var calls []ai.ToolCall

	for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
		if err != nil {
			ch <- ai.StreamEvent{Type: ai.StreamError, Err: err}
			return
		}

		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			ch <- ai.StreamEvent{
				Type: ai.StreamError,
				Err:  &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)},
			}
			return
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text != "" {
					ch <- ai.StreamEvent{Type: ai.StreamChunk, Delta: part.Text}
					content += part.Text
				}
				if part.FunctionCall != nil {
					// Whole call in one part: emit the full triple.
					args, _ := json.Marshal(part.FunctionCall.Args)
					id := fmt.Sprintf("call_%d_%s", len(calls), part.FunctionCall.Name)
					ch <- ai.StreamEvent{
						Type:     ai.StreamToolStart,
						CallID:   id,
						ToolName: part.FunctionCall.Name,
					}
					ch <- ai.StreamEvent{
						Type:      ai.StreamToolDelta,
						CallID:    id,
						ArgsDelta: string(args),
					}
					ch <- ai.StreamEvent{Type: ai.StreamToolEnd, CallID: id}
					calls = append(calls, ai.ToolCall{
						ID:        id,
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					})
				}
			}
			finishReason = string(resp.Candidates[0].FinishReason)
		}

		if resp.UsageMetadata != nil {
			usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
			usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		}
	}

	ch <- ai.StreamEvent{Type: ai.StreamUsage, Usage: &usage}
	ch <- ai.StreamEvent{
		Type: ai.StreamDone,
		Response: &ai.Response{
			Content:      content,
			FinishReason: finishReason,
			Usage:        usage,
			ToolCalls:    calls,
		},
	}
}

// BlockedError indicates the request was blocked by content filtering.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("request blocked: %s", e.Reason)
}

var _ ai.StreamProvider = (*Client)(nil)
