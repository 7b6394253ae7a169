package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"docchat/internal/ai"
	"docchat/internal/handler"
	"docchat/internal/middleware"
	"docchat/internal/model"
	"docchat/internal/rag"
	"docchat/internal/service"
)

type stubIndex struct {
	results []rag.ScoredChunk
}

func (s *stubIndex) Add(ctx context.Context, chunks []model.Chunk) error { return nil }
func (s *stubIndex) Search(ctx context.Context, query string, k int) ([]rag.ScoredChunk, error) {
	return s.results, nil
}
func (s *stubIndex) Clear(ctx context.Context)     {}
func (s *stubIndex) Count(ctx context.Context) int { return len(s.results) }

type scriptedChat struct {
	deltas    []string
	streamErr error
}

func (s *scriptedChat) Name() string         { return "stub" }
func (s *scriptedChat) DefaultModel() string { return "stub-model" }

func (s *scriptedChat) Chat(ctx context.Context, model string, msgs []ai.Message, opts ai.ChatOptions) (string, error) {
	return strings.Join(s.deltas, ""), nil
}

func (s *scriptedChat) ChatStream(ctx context.Context, model string, msgs []ai.Message, opts ai.ChatOptions) (<-chan ai.StreamDelta, error) {
	out := make(chan ai.StreamDelta)
	go func() {
		defer close(out)
		for _, d := range s.deltas {
			select {
			case out <- ai.StreamDelta{Text: d}:
			case <-ctx.Done():
				return
			}
		}
		if s.streamErr != nil {
			select {
			case out <- ai.StreamDelta{Err: s.streamErr}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func setupChatRouter(provider *scriptedChat) *gin.Engine {
	gin.SetMode(gin.TestMode)
	index := &stubIndex{results: []rag.ScoredChunk{
		{Chunk: model.Chunk{Text: "ctx", Metadata: model.DocMetadata{Filename: "a.txt"}}, Score: 0.1},
	}}
	retriever := rag.NewRetriever(index, 4)
	generator := rag.NewGenerator(provider, rag.GeneratorOptions{PromptLang: "en"})
	pipeline := rag.NewPipeline(retriever, generator)
	chat := service.NewChatService(pipeline, nil)
	h := handler.NewChatHandler(chat, "stub-model", "stub")

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.POST("/rag/chat/stream", h.ChatStream)
	return engine
}

type sseFrame struct {
	id    string
	event string
	data  map[string]interface{}
}

func parseSSE(t *testing.T, body string) []sseFrame {
	t.Helper()
	var frames []sseFrame
	for _, block := range strings.Split(body, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		var frame sseFrame
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "id:"):
				frame.id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
			case strings.HasPrefix(line, "event:"):
				frame.event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				require.NoError(t, json.Unmarshal([]byte(payload), &frame.data))
			}
		}
		frames = append(frames, frame)
	}
	return frames
}

func streamRequest(engine *gin.Engine, traceID string) *httptest.ResponseRecorder {
	body := `{"messages":[{"role":"user","content":"question"}]}`
	req := httptest.NewRequest(http.MethodPost, "/rag/chat/stream", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", traceID)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestChatStream_FrameSequence(t *testing.T) {
	engine := setupChatRouter(&scriptedChat{deltas: []string{"Hel", "lo"}})
	w := streamRequest(engine, "trace-1")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	frames := parseSSE(t, w.Body.String())
	require.Len(t, frames, 5)

	var events []string
	for i, frame := range frames {
		events = append(events, frame.event)
		require.Equal(t, fmt.Sprintf("trace-1:%d", i), frame.id)
	}
	require.Equal(t, []string{"meta", "sources", "chunk", "chunk", "done"}, events)

	require.Equal(t, "trace-1", frames[0].data["trace_id"])
	require.Equal(t, "stub-model", frames[0].data["model"])
	require.Equal(t, "Hel", frames[2].data["text"])
	require.Equal(t, "lo", frames[3].data["text"])
	require.Equal(t, "Hello", frames[4].data["response"])
	require.Equal(t, "trace-1", frames[4].data["trace_id"])
}

func TestChatStream_ErrorFrame(t *testing.T) {
	engine := setupChatRouter(&scriptedChat{deltas: []string{"Hel"}, streamErr: fmt.Errorf("backend down")})
	w := streamRequest(engine, "trace-2")

	frames := parseSSE(t, w.Body.String())
	require.Len(t, frames, 4)
	require.Equal(t, "error", frames[3].event)
	require.Equal(t, "trace-2:3", frames[3].id)
	require.Equal(t, true, frames[3].data["retryable"])
	require.Equal(t, "trace-2", frames[3].data["trace_id"])
	for _, frame := range frames {
		require.NotEqual(t, "done", frame.event)
	}
}

func TestChatStream_RejectsBadRequest(t *testing.T) {
	engine := setupChatRouter(&scriptedChat{deltas: []string{"x"}})
	req := httptest.NewRequest(http.MethodPost, "/rag/chat/stream", strings.NewReader(`{"messages":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.NotContains(t, w.Header().Get("Content-Type"), "text/event-stream")
}
