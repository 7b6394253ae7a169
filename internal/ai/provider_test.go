package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChatProvider_UnknownName(t *testing.T) {
	_, err := NewChatProvider("nope", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported llm provider")
	require.Contains(t, err.Error(), "available")

	_, err = NewChatProvider("", nil)
	require.Error(t, err)
}

func TestNewEmbedProvider_UnknownName(t *testing.T) {
	_, err := NewEmbedProvider("nope", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported embedding provider")
}

func TestNewChatProvider_MissingCredentialIsConstructionError(t *testing.T) {
	for _, name := range []string{"openai", "anthropic", "gemini"} {
		_, err := NewChatProvider(name, map[string]interface{}{})
		require.Error(t, err, "provider %s must require a credential", name)
		require.Contains(t, err.Error(), "api_key")
	}
}

func TestNewChatProvider_OllamaNeedsNoCredential(t *testing.T) {
	p, err := NewChatProvider("ollama", nil)
	require.NoError(t, err)
	require.Equal(t, "ollama", p.Name())
	require.NotEmpty(t, p.DefaultModel())
}

func TestNewEmbedProvider_Ollama(t *testing.T) {
	p, err := NewEmbedProvider("OLLAMA", map[string]interface{}{"base_url": "http://example:11434"})
	require.NoError(t, err)
	require.Equal(t, "ollama", p.Name())
}

func TestNewEmbedProvider_OpenAIMissingKey(t *testing.T) {
	_, err := NewEmbedProvider("openai", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "api_key")
}

type staticEmbedProvider struct{}

func (staticEmbedProvider) Name() string         { return "static" }
func (staticEmbedProvider) DefaultModel() string { return "static-model" }
func (staticEmbedProvider) Embed(ctx context.Context, model, text, taskType string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func TestEmbedderBindsModel(t *testing.T) {
	e := NewEmbedder(staticEmbedProvider{}, "")
	require.Equal(t, "static-model", e.ModelName())

	e = NewEmbedder(staticEmbedProvider{}, "override")
	require.Equal(t, "override", e.ModelName())

	values, err := e.Embed(context.Background(), "text", "query")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, values)
}
