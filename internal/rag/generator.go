package rag

import (
	"context"

	"docchat/internal/ai"
)

// Update is one unit of incremental generation output. Response always
// carries the full accumulated text so far, never a bare delta; the final
// update has IsStreaming false and the model/provider identifiers attached.
// A non-nil Err terminates the sequence without a final update.
type Update struct {
	Response    string
	IsStreaming bool
	Model       string
	Provider    string
	Err         error
}

// Generator formats a grounded prompt from retrieved context plus the
// conversation history and invokes the configured chat backend.
type Generator struct {
	provider    ai.IChatProvider
	model       string
	temperature float64
	maxTokens   int
	promptLang  string
}

type GeneratorOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	PromptLang  string
}

func NewGenerator(provider ai.IChatProvider, opts GeneratorOptions) *Generator {
	model := opts.Model
	if model == "" {
		model = provider.DefaultModel()
	}
	return &Generator{
		provider:    provider,
		model:       model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		promptLang:  opts.PromptLang,
	}
}

func (g *Generator) chatOptions(st *State) ai.ChatOptions {
	return ai.ChatOptions{
		System:      SystemPrompt(g.promptLang, st.Context),
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
}

// Generate produces the full response in one shot and fills in the state's
// Response, Model and Provider fields.
func (g *Generator) Generate(ctx context.Context, st *State) error {
	text, err := g.provider.Chat(ctx, g.model, st.Messages, g.chatOptions(st))
	if err != nil {
		return err
	}
	st.Response = text
	st.IsStreaming = false
	st.Model = g.model
	st.Provider = g.provider.Name()
	return nil
}

// GenerateStream drives the backend's incremental mode. The returned channel
// is unbuffered and closed by the producer; consumers abandon it by
// cancelling ctx.
func (g *Generator) GenerateStream(ctx context.Context, st *State) (<-chan Update, error) {
	deltas, err := g.provider.ChatStream(ctx, g.model, st.Messages, g.chatOptions(st))
	if err != nil {
		return nil, err
	}
	out := make(chan Update)
	go func() {
		defer close(out)
		var acc string
		for delta := range deltas {
			if delta.Err != nil {
				sendUpdate(ctx, out, Update{Response: acc, Err: delta.Err})
				return
			}
			acc += delta.Text
			if !sendUpdate(ctx, out, Update{Response: acc, IsStreaming: true}) {
				return
			}
		}
		sendUpdate(ctx, out, Update{
			Response:    acc,
			IsStreaming: false,
			Model:       g.model,
			Provider:    g.provider.Name(),
		})
	}()
	return out, nil
}

func sendUpdate(ctx context.Context, out chan<- Update, update Update) bool {
	select {
	case out <- update:
		return true
	case <-ctx.Done():
		return false
	}
}
