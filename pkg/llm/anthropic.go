package llm

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const anthropicDefaultModel = "claude-sonnet-4-5-20250929"

// AnthropicClient implements CompletionClient on the official
// anthropic-sdk-go.
type AnthropicClient struct {
	client sdk.Client
	model  string
}

// AnthropicOption configures the client.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicModel overrides the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(c *AnthropicClient) {
		c.model = model
	}
}

// NewAnthropicClient creates an Anthropic client backed by the SDK.
func NewAnthropicClient(apiKey string, opts ...AnthropicOption) *AnthropicClient {
	c := &AnthropicClient{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropicDefaultModel,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate performs a message completion with a system block and one user
// message.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	params := sdk.MessageNewParams{
		Model:       sdk.Model(model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.User))},
		Temperature: sdk.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		text.WriteString(block.Text)
	}

	return &GenerateResponse{
		Text:         text.String(),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}, nil
}
