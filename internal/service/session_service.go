package service

import (
	"context"

	"docchat/internal/model"
	"docchat/internal/repo"
)

type SessionService struct {
	chats *repo.ChatRepo
}

func NewSessionService(chats *repo.ChatRepo) *SessionService {
	return &SessionService{chats: chats}
}

type SessionWithMessages struct {
	model.ChatSession
	Messages []model.ChatMessage `json:"messages"`
}

func (s *SessionService) Create(ctx context.Context, title string) (*model.ChatSession, error) {
	return s.chats.CreateSession(ctx, title)
}

func (s *SessionService) List(ctx context.Context, limit, offset int) ([]model.ChatSession, error) {
	return s.chats.ListSessions(ctx, limit, offset)
}

func (s *SessionService) Get(ctx context.Context, id string) (*SessionWithMessages, error) {
	session, err := s.chats.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.chats.ListMessages(ctx, id)
	if err != nil {
		return nil, err
	}
	return &SessionWithMessages{ChatSession: *session, Messages: messages}, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) (bool, error) {
	return s.chats.DeleteSession(ctx, id)
}
