package service

import (
	"context"
	"encoding/json"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"docchat/internal/model"
	appErr "docchat/internal/pkg/errors"
	"docchat/internal/rag"
)

// ChatStore is the slice of the chat repository the conversation flow needs.
type ChatStore interface {
	GetSession(ctx context.Context, id string) (*model.ChatSession, error)
	AddMessage(ctx context.Context, msg *model.ChatMessage) error
	TouchSession(ctx context.Context, id string, title string) error
}

// ChatService runs the pipeline for a conversation and optionally persists
// the exchange to a chat session.
type ChatService struct {
	pipeline *rag.Pipeline
	chats    ChatStore
}

func NewChatService(pipeline *rag.Pipeline, chats ChatStore) *ChatService {
	return &ChatService{pipeline: pipeline, chats: chats}
}

type ChatResult struct {
	Response  string             `json:"response"`
	Sources   []model.SourceInfo `json:"sources"`
	Model     string             `json:"model"`
	Provider  string             `json:"provider"`
	SessionID string             `json:"session_id,omitempty"`
}

func splitTurns(turns []model.ChatTurn) (string, []model.ChatTurn, error) {
	if len(turns) == 0 {
		return "", nil, appErr.ErrInvalid
	}
	last := turns[len(turns)-1]
	if last.Role != model.RoleUser || last.Content == "" {
		return "", nil, appErr.ErrInvalid
	}
	return last.Content, turns[:len(turns)-1], nil
}

func (s *ChatService) Chat(ctx context.Context, sessionID string, turns []model.ChatTurn) (*ChatResult, error) {
	query, history, err := s.prepare(ctx, sessionID, turns)
	if err != nil {
		return nil, err
	}
	st, err := s.pipeline.Run(ctx, query, history)
	if err != nil {
		return nil, err
	}
	if sessionID != "" && st.Response != "" {
		s.saveAssistantMessage(ctx, sessionID, st.Response, st.Sources, st.Model, st.Provider)
	}
	return &ChatResult{
		Response:  st.Response,
		Sources:   st.Sources,
		Model:     st.Model,
		Provider:  st.Provider,
		SessionID: sessionID,
	}, nil
}

// ChatStream forwards the pipeline's event stream and persists the final
// assistant message once a done event with content arrives. An aborted or
// empty generation leaves no assistant row behind.
func (s *ChatService) ChatStream(ctx context.Context, sessionID string, turns []model.ChatTurn) (<-chan rag.Event, error) {
	query, history, err := s.prepare(ctx, sessionID, turns)
	if err != nil {
		return nil, err
	}
	events, err := s.pipeline.Stream(ctx, query, history)
	if err != nil {
		return nil, err
	}
	out := make(chan rag.Event)
	go func() {
		defer close(out)
		for event := range events {
			if event.Type == rag.EventDone && sessionID != "" && event.Response != "" {
				s.saveAssistantMessage(ctx, sessionID, event.Response, event.Sources, event.Model, event.Provider)
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *ChatService) prepare(ctx context.Context, sessionID string, turns []model.ChatTurn) (string, []model.ChatTurn, error) {
	query, history, err := splitTurns(turns)
	if err != nil {
		return "", nil, err
	}
	if sessionID != "" {
		if _, err := s.chats.GetSession(ctx, sessionID); err != nil {
			return "", nil, err
		}
		if err := s.chats.AddMessage(ctx, &model.ChatMessage{
			SessionID: sessionID,
			Role:      model.RoleUser,
			Content:   query,
		}); err != nil {
			return "", nil, err
		}
	}
	return query, history, nil
}

func (s *ChatService) saveAssistantMessage(ctx context.Context, sessionID, content string, sources []model.SourceInfo, modelName, provider string) {
	logger := logutil.GetLogger(ctx)
	sourcesJSON := ""
	if len(sources) > 0 {
		data, err := json.Marshal(sources)
		if err != nil {
			logger.Warn("failed to encode sources", zap.Error(err))
		} else {
			sourcesJSON = string(data)
		}
	}
	if err := s.chats.AddMessage(ctx, &model.ChatMessage{
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   content,
		Sources:   sourcesJSON,
		Model:     modelName,
		Provider:  provider,
	}); err != nil {
		logger.Warn("failed to persist assistant message", zap.Error(err))
		return
	}
	if err := s.chats.TouchSession(ctx, sessionID, ""); err != nil {
		logger.Warn("failed to touch session", zap.Error(err))
	}
}
