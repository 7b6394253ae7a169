package rag

import (
	"docchat/internal/ai"
	"docchat/internal/model"
)

// State is the single value threaded through one pipeline invocation.
// Context is always the rank-ordered join of RetrievedDocs' text, and
// Sources is always derived from RetrievedDocs via the dedup rule in the
// retriever. During streaming, Response grows as an accumulated prefix;
// Model and Provider are only set once generation has finished.
type State struct {
	Messages      []ai.Message
	Query         string
	RetrievedDocs []model.Chunk
	Context       string
	Sources       []model.SourceInfo
	Response      string
	IsStreaming   bool
	Model         string
	Provider      string
}

func newState(query string, history []model.ChatTurn, streaming bool) *State {
	messages := make([]ai.Message, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case model.RoleUser, model.RoleAssistant:
			messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
		}
	}
	messages = append(messages, ai.Message{Role: model.RoleUser, Content: query})
	return &State{
		Messages:    messages,
		Query:       query,
		IsStreaming: streaming,
	}
}
