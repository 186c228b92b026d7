// Package anthropic adapts the Anthropic Messages API to the canonical
// stream event sequence.
//
// The decoder is the only place Anthropic protocol quirks live: text
// deltas, tool_use blocks with incremental input_json_delta fragments,
// and usage accounting all map onto [strand.StreamEvent] variants here,
// keeping the shared loop logic provider-agnostic.
package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	ai "github.com/strandlabs/strand"
)

// DefaultModel is used when the request doesn't specify one.
const DefaultModel = "claude-sonnet-4-20250514"

// Client wraps the Anthropic SDK to implement ai.StreamProvider.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a new Anthropic client. Without WithAPIKey the SDK reads
// the ANTHROPIC_API_KEY environment variable.
func New(opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		client := anthropic.NewClient()
		c.client = &client
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithAPIKey sets the API key explicitly.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		client := anthropic.NewClient(option.WithAPIKey(key))
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

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" && options.ToolChoice != ai.ToolChoiceNone {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream := c.client.Messages.NewStreaming(streamCtx, params)
	ch := make(chan ai.StreamEvent)

	go decode(stream, ch)

	return ai.NewStreamHandle(ch, cancel), nil
}

// decode maps the native event stream onto canonical events. Partial or
// malformed payloads are absorbed: an undecodable block yields a
// tool_error event and the turn continues.
func decode(stream *ssestream.Stream[anthropic.MessageStreamEventUnion], ch chan<- ai.StreamEvent) {
	defer close(ch)

	var acc anthropic.Message
	blockCall := make(map[int64]string)

	for stream.Next() {
		e := stream.Current()
		acc.Accumulate(e)

		switch e.Type {
		case "content_block_start":
			start := e.AsContentBlockStart()
			if start.ContentBlock.Type == "tool_use" {
				blockCall[start.Index] = start.ContentBlock.ID
				ch <- ai.StreamEvent{
					Type:     ai.StreamToolStart,
					CallID:   start.ContentBlock.ID,
					ToolName: start.ContentBlock.Name,
				}
			}

		case "content_block_delta":
			delta := e.AsContentBlockDelta()
			if textDelta := delta.Delta.AsTextDelta(); textDelta.Type == "text_delta" && textDelta.Text != "" {
				ch <- ai.StreamEvent{Type: ai.StreamChunk, Delta: textDelta.Text}
			}
			if jsonDelta := delta.Delta.AsInputJSONDelta(); jsonDelta.Type == "input_json_delta" && jsonDelta.PartialJSON != "" {
				if id, ok := blockCall[delta.Index]; ok {
					ch <- ai.StreamEvent{
						Type:      ai.StreamToolDelta,
						CallID:    id,
						ArgsDelta: jsonDelta.PartialJSON,
					}
				}
			}

		case "content_block_stop":
			stop := e.AsContentBlockStop()
			if id, ok := blockCall[stop.Index]; ok {
				ch <- ai.StreamEvent{Type: ai.StreamToolEnd, CallID: id}
			}
		}
	}

	if err := stream.Err(); err != nil {
		ch <- ai.StreamEvent{Type: ai.StreamError, Err: err}
		return
	}

	usage := ai.Usage{
		InputTokens:  int(acc.Usage.InputTokens),
		OutputTokens: int(acc.Usage.OutputTokens),
	}
	ch <- ai.StreamEvent{Type: ai.StreamUsage, Usage: &usage}

	content := ""
	var toolCalls []ai.ToolCall
	for _, block := range acc.Content {
		switch block.Type {
		case "text":
			content += block.Text
		case "tool_use":
			toolCalls = append(toolCalls, ai.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	ch <- ai.StreamEvent{
		Type: ai.StreamDone,
		Response: &ai.Response{
			Content:      content,
			FinishReason: string(acc.StopReason),
			Usage:        usage,
			ToolCalls:    toolCalls,
		},
	}
}

var _ ai.StreamProvider = (*Client)(nil)
