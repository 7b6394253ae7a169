package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"docchat/internal/ai"
	"docchat/internal/model"
)

// fakeIndex serves canned search results and records writes.
type fakeIndex struct {
	results   []ScoredChunk
	searchErr error
	added     [][]model.Chunk
	addErr    error
	cleared   int
	count     int
}

func (f *fakeIndex) Add(ctx context.Context, chunks []model.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, chunks)
	f.count += len(chunks)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.results) {
		return f.results[:k], nil
	}
	return f.results, nil
}

func (f *fakeIndex) Clear(ctx context.Context) {
	f.cleared++
	f.count = 0
	f.added = nil
}

func (f *fakeIndex) Count(ctx context.Context) int {
	return f.count
}

// scriptedChat replays fixed deltas for streaming and their concatenation
// for buffered calls.
type scriptedChat struct {
	name      string
	deltas    []string
	chatErr   error
	streamErr error
}

func (s *scriptedChat) Name() string         { return s.name }
func (s *scriptedChat) DefaultModel() string { return "stub-model" }

func (s *scriptedChat) Chat(ctx context.Context, model string, msgs []ai.Message, opts ai.ChatOptions) (string, error) {
	if s.chatErr != nil {
		return "", s.chatErr
	}
	var out string
	for _, d := range s.deltas {
		out += d
	}
	return out, nil
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

func testPipeline(index VectorIndex, chat ai.IChatProvider) *Pipeline {
	retriever := NewRetriever(index, 4)
	generator := NewGenerator(chat, GeneratorOptions{MaxTokens: 128, PromptLang: "en"})
	return NewPipeline(retriever, generator)
}

func TestPipelineRun(t *testing.T) {
	index := &fakeIndex{results: []ScoredChunk{
		{Chunk: model.Chunk{Text: "fact one", Metadata: model.DocMetadata{Filename: "a.txt"}}, Score: 0.1},
		{Chunk: model.Chunk{Text: "fact two", Metadata: model.DocMetadata{Filename: "b.txt"}}, Score: 0.2},
	}}
	chat := &scriptedChat{name: "stub", deltas: []string{"Hel", "lo"}}
	p := testPipeline(index, chat)

	st, err := p.Run(context.Background(), "question?", nil)
	require.NoError(t, err)
	require.Equal(t, "Hello", st.Response)
	require.Equal(t, "stub-model", st.Model)
	require.Equal(t, "stub", st.Provider)
	require.Equal(t, "fact one\n\n---\n\nfact two", st.Context)
	require.Len(t, st.Sources, 2)
	require.False(t, st.IsStreaming)
}

func TestPipelineRun_HistoryMapping(t *testing.T) {
	index := &fakeIndex{}
	chat := &scriptedChat{name: "stub", deltas: []string{"ok"}}
	p := testPipeline(index, chat)

	st, err := p.Run(context.Background(), "latest", []model.ChatTurn{
		{Role: model.RoleUser, Content: "first"},
		{Role: model.RoleAssistant, Content: "answer"},
		{Role: "system", Content: "dropped"},
	})
	require.NoError(t, err)
	require.Len(t, st.Messages, 3)
	require.Equal(t, model.RoleUser, st.Messages[0].Role)
	require.Equal(t, model.RoleAssistant, st.Messages[1].Role)
	require.Equal(t, "latest", st.Messages[2].Content)
}

func TestPipelineRun_StageTaggedErrors(t *testing.T) {
	index := &fakeIndex{searchErr: errors.New("store down")}
	p := testPipeline(index, &scriptedChat{name: "stub", deltas: []string{"x"}})
	_, err := p.Run(context.Background(), "q", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "retrieve:")

	index = &fakeIndex{}
	p = testPipeline(index, &scriptedChat{name: "stub", chatErr: errors.New("model down")})
	_, err = p.Run(context.Background(), "q", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "generate:")
}

func TestPipelineStream_EventOrder(t *testing.T) {
	index := &fakeIndex{results: []ScoredChunk{
		{Chunk: model.Chunk{Text: "ctx", Metadata: model.DocMetadata{Filename: "a.txt"}}, Score: 0.5},
	}}
	chat := &scriptedChat{name: "stub", deltas: []string{"Hel", "lo"}}
	p := testPipeline(index, chat)

	events, err := p.Stream(context.Background(), "q", nil)
	require.NoError(t, err)
	var got []Event
	for event := range events {
		got = append(got, event)
	}
	require.Len(t, got, 4)

	require.Equal(t, EventSources, got[0].Type)
	require.Len(t, got[0].Sources, 1)
	require.Equal(t, "ctx", got[0].Context)

	require.Equal(t, EventChunk, got[1].Type)
	require.Equal(t, "Hel", got[1].Response)
	require.Equal(t, EventChunk, got[2].Type)
	require.Equal(t, "Hello", got[2].Response)

	require.Equal(t, EventDone, got[3].Type)
	require.Equal(t, "Hello", got[3].Response)
	require.Equal(t, "stub-model", got[3].Model)
	require.Equal(t, "stub", got[3].Provider)
	require.Equal(t, got[0].Sources, got[3].Sources)
}

func TestPipelineStream_MatchesRunResponse(t *testing.T) {
	index := &fakeIndex{results: []ScoredChunk{
		{Chunk: model.Chunk{Text: "ctx", Metadata: model.DocMetadata{Filename: "a.txt"}}, Score: 0.5},
	}}
	chat := &scriptedChat{name: "stub", deltas: []string{"consis", "tent"}}
	p := testPipeline(index, chat)

	st, err := p.Run(context.Background(), "q", nil)
	require.NoError(t, err)

	events, err := p.Stream(context.Background(), "q", nil)
	require.NoError(t, err)
	var final Event
	for event := range events {
		final = event
	}
	require.Equal(t, EventDone, final.Type)
	require.Equal(t, st.Response, final.Response)
}

func TestPipelineStream_MidStreamError(t *testing.T) {
	index := &fakeIndex{}
	chat := &scriptedChat{name: "stub", deltas: []string{"par"}, streamErr: errors.New("connection reset")}
	p := testPipeline(index, chat)

	events, err := p.Stream(context.Background(), "q", nil)
	require.NoError(t, err)
	var got []Event
	for event := range events {
		got = append(got, event)
	}
	require.NotEmpty(t, got)
	last := got[len(got)-1]
	require.Equal(t, EventError, last.Type)
	require.Error(t, last.Err)
	require.Contains(t, last.Err.Error(), "generate:")
	for _, event := range got[:len(got)-1] {
		require.NotEqual(t, EventDone, event.Type)
	}
}

func TestPipelineStream_RetrieveErrorBeforeEvents(t *testing.T) {
	index := &fakeIndex{searchErr: errors.New("store down")}
	p := testPipeline(index, &scriptedChat{name: "stub", deltas: []string{"x"}})
	_, err := p.Stream(context.Background(), "q", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "retrieve:")
}

func TestPipelineStream_ConsumerAbandon(t *testing.T) {
	index := &fakeIndex{}
	chat := &scriptedChat{name: "stub", deltas: []string{"a", "b", "c", "d"}}
	p := testPipeline(index, chat)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := p.Stream(ctx, "q", nil)
	require.NoError(t, err)

	<-events // sources
	<-events // first chunk
	cancel()
	// Producer must close the stream instead of blocking forever.
	for range events {
	}
}
