// Package anthropic adapts the Anthropic Messages API to the engine's
// model client interface. Capability calls travel as fenced blocks in
// plain text content, so no provider-native tool plumbing is used.
package anthropic

import (
	"context"
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/recallhq/recall-go-sdk/core"
)

// Client wraps an Anthropic SDK client behind engine.ModelClient.
type Client struct {
	api       *sdk.Client
	model     string
	maxTokens int64
}

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithMaxTokens overrides the default response token cap.
func WithMaxTokens(n int64) Option {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// New creates a client. The API key is read from the ANTHROPIC_API_KEY
// environment variable by the SDK.
func New(opts ...Option) *Client {
	api := sdk.NewClient()
	return configure(&api, opts)
}

// NewWithKey creates a client with an explicit API key.
func NewWithKey(apiKey string, opts ...Option) *Client {
	api := sdk.NewClient(option.WithAPIKey(apiKey))
	return configure(&api, opts)
}

func configure(api *sdk.Client, opts []Option) *Client {
	c := &Client{
		api:       api,
		model:     "claude-sonnet-4-20250514",
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send submits the conversation and returns the assistant's reply as a
// single text message. Adjacent text blocks are concatenated.
func (c *Client) Send(ctx context.Context, history []core.Message, system string) (core.Message, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  convertHistory(history),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	resp, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return core.Message{}, fmt.Errorf("anthropic: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return core.AssistantMessage(text), nil
}

func convertHistory(history []core.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case core.RoleAssistant:
			out = append(out, sdk.NewAssistantMessage(sdk.NewTextBlock(msg.Content)))
		default:
			out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
		}
	}
	return out
}
