package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiChatModel = "gemini-1.5-flash"

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiProvider struct {
	apiKey string
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) DefaultModel() string {
	return defaultGeminiChatModel
}

func (p *geminiProvider) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (p *geminiProvider) buildRequest(msgs []Message, opts ChatOptions) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	config := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.System != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.System, genai.RoleUser)
	}
	return contents, config
}

func (p *geminiProvider) Chat(ctx context.Context, model string, msgs []Message, opts ChatOptions) (string, error) {
	client, err := p.newClient(ctx)
	if err != nil {
		return "", err
	}
	contents, config := p.buildRequest(msgs, opts)
	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini response has no text content")
	}
	return text, nil
}

func (p *geminiProvider) ChatStream(ctx context.Context, model string, msgs []Message, opts ChatOptions) (<-chan StreamDelta, error) {
	client, err := p.newClient(ctx)
	if err != nil {
		return nil, err
	}
	contents, config := p.buildRequest(msgs, opts)

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		for resp, err := range client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				sendDelta(ctx, out, StreamDelta{Err: fmt.Errorf("gemini stream failed: %w", err)})
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !sendDelta(ctx, out, StreamDelta{Text: text}) {
				return
			}
		}
	}()
	return out, nil
}

func createGeminiFactory(args interface{}) (IChatProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("llm.data.api_key is required for the gemini provider")
	}
	return &geminiProvider{apiKey: apiKey}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
}
