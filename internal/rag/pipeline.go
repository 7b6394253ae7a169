package rag

import (
	"context"
	"fmt"

	"docchat/internal/model"
)

const (
	EventSources = "sources"
	EventChunk   = "chunk"
	EventDone    = "done"
	EventError   = "error"
)

// Event is one tagged emission from a streaming pipeline invocation. The
// ordering contract is: exactly one sources event first, then zero or more
// chunk events with the accumulated response, then exactly one done event
// carrying the final text, the same source list as the sources event, and
// the model/provider identifiers. A mid-stream failure replaces done with a
// terminal error event.
type Event struct {
	Type        string
	Sources     []model.SourceInfo
	Context     string
	Response    string
	IsStreaming bool
	Model       string
	Provider    string
	Err         error
}

// Pipeline sequences the retrieve and generate stages over one query.
type Pipeline struct {
	retriever *Retriever
	generator *Generator
}

func NewPipeline(retriever *Retriever, generator *Generator) *Pipeline {
	return &Pipeline{retriever: retriever, generator: generator}
}

// Run executes both stages buffered and returns the final state. A stage
// failure is tagged with the stage name and no partial state is returned.
func (p *Pipeline) Run(ctx context.Context, query string, history []model.ChatTurn) (*State, error) {
	st := newState(query, history, false)
	result, err := p.retriever.Retrieve(ctx, query, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	st.RetrievedDocs = result.Documents
	st.Context = result.Context
	st.Sources = result.Sources
	if err := p.generator.Generate(ctx, st); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return st, nil
}

// Stream executes the retrieve stage eagerly, so a retrieval failure is
// returned before any event is emitted, then drives the generator's
// incremental contract over the returned channel. The channel is unbuffered
// and closed after the terminal event; consumers abandon it by cancelling
// ctx.
func (p *Pipeline) Stream(ctx context.Context, query string, history []model.ChatTurn) (<-chan Event, error) {
	st := newState(query, history, true)
	result, err := p.retriever.Retrieve(ctx, query, 0)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	st.RetrievedDocs = result.Documents
	st.Context = result.Context
	st.Sources = result.Sources

	updates, err := p.generator.GenerateStream(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		if !sendEvent(ctx, out, Event{
			Type:    EventSources,
			Sources: result.Sources,
			Context: result.Context,
		}) {
			return
		}
		for update := range updates {
			if update.Err != nil {
				sendEvent(ctx, out, Event{
					Type:     EventError,
					Response: update.Response,
					Err:      fmt.Errorf("generate: %w", update.Err),
				})
				return
			}
			if update.IsStreaming {
				if !sendEvent(ctx, out, Event{
					Type:        EventChunk,
					Response:    update.Response,
					IsStreaming: true,
				}) {
					return
				}
				continue
			}
			sendEvent(ctx, out, Event{
				Type:     EventDone,
				Response: update.Response,
				Sources:  result.Sources,
				Model:    update.Model,
				Provider: update.Provider,
			})
			return
		}
	}()
	return out, nil
}

func sendEvent(ctx context.Context, out chan<- Event, event Event) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
