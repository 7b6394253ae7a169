package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Message is one conversation turn in provider-neutral form.
type Message struct {
	Role    string
	Content string
}

// ChatOptions carries the per-call generation knobs shared by all providers.
type ChatOptions struct {
	System      string
	Temperature float64
	MaxTokens   int
}

// StreamDelta is one unit of incremental output. Text carries the new piece
// of content; a non-nil Err terminates the stream.
type StreamDelta struct {
	Text string
	Err  error
}

// IChatProvider produces chat completions, buffered or incremental. The
// stream returned by ChatStream is closed by the producer after the last
// delta (or after an error delta); producers stop on ctx cancellation.
type IChatProvider interface {
	Name() string
	DefaultModel() string
	Chat(ctx context.Context, model string, msgs []Message, opts ChatOptions) (string, error)
	ChatStream(ctx context.Context, model string, msgs []Message, opts ChatOptions) (<-chan StreamDelta, error)
}

type IEmbedProvider interface {
	Name() string
	DefaultModel() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

// IEmbedder binds an embed provider to a concrete model.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	if model == "" {
		model = p.DefaultModel()
	}
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type ChatFactory func(args interface{}) (IChatProvider, error)
type EmbedFactory func(args interface{}) (IEmbedProvider, error)

var (
	chatRegistry  = map[string]ChatFactory{}
	embedRegistry = map[string]EmbedFactory{}
)

func Register(name string, factory ChatFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	chatRegistry[key] = factory
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

// NewChatProvider constructs the named provider. A missing credential or an
// unknown name is a configuration error surfaced here, never at generation
// time.
func NewChatProvider(name string, args interface{}) (IChatProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("llm.provider is required")
	}
	factory := chatRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported llm provider: %s (available: %s)", name, strings.Join(chatProviderNames(), ", "))
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embedding provider: %s (available: %s)", name, strings.Join(embedProviderNames(), ", "))
	}
	return factory(args)
}

func chatProviderNames() []string {
	names := make([]string, 0, len(chatRegistry))
	for name := range chatRegistry {
		names = append(names, name)
	}
	return names
}

func embedProviderNames() []string {
	names := make([]string, 0, len(embedRegistry))
	for name := range embedRegistry {
		names = append(names, name)
	}
	return names
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
