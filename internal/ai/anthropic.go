package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicChatModel = "claude-3-haiku-20240307"

type anthropicConfig struct {
	APIKey string `json:"api_key"`
}

type anthropicProvider struct {
	client anthropic.Client
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) DefaultModel() string {
	return defaultAnthropicChatModel
}

func (p *anthropicProvider) buildParams(model string, msgs []Message, opts ChatOptions) anthropic.MessageNewParams {
	converted := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "assistant" {
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			continue
		}
		converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(opts.MaxTokens),
		Messages:  converted,
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = 2048
	}
	if opts.Temperature > 0 {
		params.Temperature = anthropic.Float(opts.Temperature)
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}
	return params
}

func (p *anthropicProvider) Chat(ctx context.Context, model string, msgs []Message, opts ChatOptions) (string, error) {
	resp, err := p.client.Messages.New(ctx, p.buildParams(model, msgs, opts))
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic response has no text content")
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *anthropicProvider) ChatStream(ctx context.Context, model string, msgs []Message, opts ChatOptions) (<-chan StreamDelta, error) {
	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(model, msgs, opts))

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		defer stream.Close()
		for stream.Next() {
			event := stream.Current()
			deltaEvent, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}
			textDelta, ok := deltaEvent.Delta.AsAny().(anthropic.TextDelta)
			if !ok || textDelta.Text == "" {
				continue
			}
			if !sendDelta(ctx, out, StreamDelta{Text: textDelta.Text}) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			sendDelta(ctx, out, StreamDelta{Err: fmt.Errorf("anthropic stream failed: %w", err)})
		}
	}()
	return out, nil
}

func createAnthropicFactory(args interface{}) (IChatProvider, error) {
	cfg := &anthropicConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("llm.data.api_key is required for the anthropic provider")
	}
	return &anthropicProvider{client: anthropic.NewClient(option.WithAPIKey(apiKey))}, nil
}

func init() {
	Register("anthropic", createAnthropicFactory)
}
