package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOllamaBaseURL    = "http://localhost:11434"
	defaultOllamaChatModel  = "gemma3:4b"
	defaultOllamaEmbedModel = "nomic-embed-text"
)

type ollamaConfig struct {
	BaseURL string `json:"base_url"`
}

type ollamaProvider struct {
	baseURL string
}

type ollamaChatRequest struct {
	Model    string                 `json:"model"`
	Messages []ollamaChatMsg        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type ollamaChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) DefaultModel() string {
	return defaultOllamaChatModel
}

// Chat drains the incremental stream and concatenates it. Ollama streams
// regardless of the caller's intent, so the buffered mode is built on top of
// ChatStream rather than a separate request shape.
func (p *ollamaProvider) Chat(ctx context.Context, model string, msgs []Message, opts ChatOptions) (string, error) {
	deltas, err := p.ChatStream(ctx, model, msgs, opts)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for delta := range deltas {
		if delta.Err != nil {
			return "", delta.Err
		}
		sb.WriteString(delta.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (p *ollamaProvider) ChatStream(ctx context.Context, model string, msgs []Message, opts ChatOptions) (<-chan StreamDelta, error) {
	endpoint := strings.TrimRight(p.baseURL, "/") + "/api/chat"
	reqBody := ollamaChatRequest{
		Model:    model,
		Messages: make([]ollamaChatMsg, 0, len(msgs)+1),
		Stream:   true,
		Options:  map[string]interface{}{},
	}
	if opts.System != "" {
		reqBody.Messages = append(reqBody.Messages, ollamaChatMsg{Role: "system", Content: opts.System})
	}
	for _, m := range msgs {
		reqBody.Messages = append(reqBody.Messages, ollamaChatMsg{Role: m.Role, Content: m.Content})
	}
	if opts.Temperature > 0 {
		reqBody.Options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		reqBody.Options["num_predict"] = opts.MaxTokens
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				sendDelta(ctx, out, StreamDelta{Err: fmt.Errorf("decode ollama stream: %w", err)})
				return
			}
			if chunk.Error != "" {
				sendDelta(ctx, out, StreamDelta{Err: fmt.Errorf("ollama stream error: %s", chunk.Error)})
				return
			}
			if chunk.Message.Content != "" {
				if !sendDelta(ctx, out, StreamDelta{Text: chunk.Message.Content}) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			sendDelta(ctx, out, StreamDelta{Err: fmt.Errorf("read ollama stream: %w", err)})
		}
	}()
	return out, nil
}

type ollamaEmbedProvider struct {
	baseURL string
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (p *ollamaEmbedProvider) Name() string {
	return "ollama"
}

func (p *ollamaEmbedProvider) DefaultModel() string {
	return defaultOllamaEmbedModel
}

func (p *ollamaEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	_ = taskType // ollama has no task-type hint
	endpoint := strings.TrimRight(p.baseURL, "/") + "/api/embeddings"
	data, err := json.Marshal(ollamaEmbedRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("ollama response has no embedding")
	}
	return out.Embedding, nil
}

func createOllamaFactory(args interface{}) (IChatProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &ollamaProvider{baseURL: baseURL}, nil
}

func createOllamaEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &ollamaEmbedProvider{baseURL: baseURL}, nil
}

// sendDelta delivers a delta unless the consumer has gone away.
func sendDelta(ctx context.Context, out chan<- StreamDelta, delta StreamDelta) bool {
	select {
	case out <- delta:
		return true
	case <-ctx.Done():
		return false
	}
}

func init() {
	Register("ollama", createOllamaFactory)
	RegisterEmbed("ollama", createOllamaEmbedFactory)
}
