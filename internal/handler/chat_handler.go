package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"docchat/internal/model"
	"docchat/internal/pkg/errcode"
	appErr "docchat/internal/pkg/errors"
	"docchat/internal/pkg/response"
	"docchat/internal/rag"
	"docchat/internal/service"
)

type ChatHandler struct {
	chat     *service.ChatService
	model    string
	provider string
}

func NewChatHandler(chat *service.ChatService, modelName, provider string) *ChatHandler {
	return &ChatHandler{chat: chat, model: modelName, provider: provider}
}

type chatRequest struct {
	SessionID string           `json:"session_id"`
	Messages  []model.ChatTurn `json:"messages"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.chat.Chat(c.Request.Context(), req.SessionID, req.Messages)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			response.Error(c, errcode.ErrNotFound, "session not found")
			return
		}
		if errors.Is(err, appErr.ErrInvalid) {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// sseStream writes SSE frames tagged with monotonically increasing
// "trace:seq" ids so clients can dedupe or resume after a reconnect.
type sseStream struct {
	c       *gin.Context
	traceID string
	seq     int
}

func (s *sseStream) send(event string, data interface{}) {
	s.c.Render(-1, sse.Event{
		Id:    fmt.Sprintf("%s:%d", s.traceID, s.seq),
		Event: event,
		Data:  data,
	})
	s.seq++
	s.c.Writer.Flush()
}

// ChatStream answers over SSE. The wire protocol sends bare text deltas in
// chunk events while the pipeline carries accumulated prefixes, so the
// handler diffs consecutive events before emitting.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	ctx := c.Request.Context()
	events, err := h.chat.ChatStream(ctx, req.SessionID, req.Messages)
	if err != nil {
		if errors.Is(err, appErr.ErrNotFound) {
			response.Error(c, errcode.ErrNotFound, "session not found")
			return
		}
		if errors.Is(err, appErr.ErrInvalid) {
			response.Error(c, errcode.ErrInvalid, "invalid request")
			return
		}
		handleError(c, err)
		return
	}

	traceID := requestID(c)
	start := time.Now()
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	stream := &sseStream{c: c, traceID: traceID}
	stream.send("meta", gin.H{
		"trace_id":   traceID,
		"model":      h.model,
		"provider":   h.provider,
		"session_id": req.SessionID,
	})

	lastResponse := ""
	for event := range events {
		switch event.Type {
		case rag.EventSources:
			stream.send("sources", gin.H{"sources": event.Sources})
		case rag.EventChunk:
			if len(event.Response) <= len(lastResponse) {
				continue
			}
			delta := event.Response[len(lastResponse):]
			lastResponse = event.Response
			stream.send("chunk", gin.H{"text": delta})
		case rag.EventDone:
			stream.send("done", gin.H{
				"response":   event.Response,
				"sources":    event.Sources,
				"model":      event.Model,
				"provider":   event.Provider,
				"latency_ms": time.Since(start).Milliseconds(),
				"trace_id":   traceID,
			})
		case rag.EventError:
			stream.send("error", gin.H{
				"code":      errcode.ErrGenerationFailed,
				"message":   "generation failed",
				"details":   []string{event.Err.Error()},
				"trace_id":  traceID,
				"retryable": true,
			})
		}
	}
}
