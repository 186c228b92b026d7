// Package openai adapts the OpenAI Chat Completions API to the
// canonical stream event sequence.
//
// Tool-call arguments arrive as indexed fragments in the delta stream;
// the decoder keys them by call id so the loop can accumulate them the
// same way for every provider.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	ai "github.com/strandlabs/strand"
)

// DefaultModel is used when the request doesn't specify one.
const DefaultModel = "gpt-4.1"

// Client wraps the OpenAI SDK to implement ai.StreamProvider.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client. Without WithAPIKey the SDK reads
// the OPENAI_API_KEY environment variable.
func New(opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		client := openai.NewClient()
		c.client = &client
	}
	return c
}

// ClientOption configures the OpenAI client.
type ClientOption func(*Client)

// WithAPIKey sets the API key explicitly.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		client := openai.NewClient(option.WithAPIKey(key))
		c.client = &client
	}
}

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

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream := c.client.Chat.Completions.NewStreaming(streamCtx, params)
	ch := make(chan ai.StreamEvent)

	go decode(stream, ch)

	return ai.NewStreamHandle(ch, cancel), nil
}

// decode maps the native chunk stream onto canonical events.
func decode(stream *ssestream.Stream[openai.ChatCompletionChunk], ch chan<- ai.StreamEvent) {
	defer close(ch)

	var acc openai.ChatCompletionAccumulator
	callID := make(map[int64]string)
	var callOrder []string

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.Content != "" {
			ch <- ai.StreamEvent{Type: ai.StreamChunk, Delta: delta.Content}
		}

		for _, tc := range delta.ToolCalls {
			if tc.ID != "" {
				if _, seen := callID[tc.Index]; !seen {
					callID[tc.Index] = tc.ID
					callOrder = append(callOrder, tc.ID)
					ch <- ai.StreamEvent{
						Type:     ai.StreamToolStart,
						CallID:   tc.ID,
						ToolName: tc.Function.Name,
					}
				}
			}
			if tc.Function.Arguments != "" {
				if id, ok := callID[tc.Index]; ok {
					ch <- ai.StreamEvent{
						Type:      ai.StreamToolDelta,
						CallID:    id,
						ArgsDelta: tc.Function.Arguments,
					}
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		ch <- ai.StreamEvent{Type: ai.StreamError, Err: err}
		return
	}

	for _, id := range callOrder {
		ch <- ai.StreamEvent{Type: ai.StreamToolEnd, CallID: id}
	}

	usage := ai.Usage{
		InputTokens:  int(acc.Usage.PromptTokens),
		OutputTokens: int(acc.Usage.CompletionTokens),
	}
	ch <- ai.StreamEvent{Type: ai.StreamUsage, Usage: &usage}

	var response ai.Response
	response.Usage = usage
	if len(acc.Choices) > 0 {
		choice := acc.Choices[0]
		response.Content = choice.Message.Content
		response.FinishReason = string(choice.FinishReason)
		for _, tc := range choice.Message.ToolCalls {
			response.ToolCalls = append(response.ToolCalls, ai.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	ch <- ai.StreamEvent{Type: ai.StreamDone, Response: &response}
}

var _ ai.StreamProvider = (*Client)(nil)
