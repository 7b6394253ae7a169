package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"docchat/internal/model"
)

func TestRetrieve_DedupKeepsFirstSeen(t *testing.T) {
	index := &fakeIndex{results: []ScoredChunk{
		{Chunk: model.Chunk{Text: "chunk one", Metadata: model.DocMetadata{Filename: "doc.pdf", Page: 1}}, Score: 0.10},
		{Chunk: model.Chunk{Text: "chunk two", Metadata: model.DocMetadata{Filename: "doc.pdf", Page: 1}}, Score: 0.25},
		{Chunk: model.Chunk{Text: "chunk three", Metadata: model.DocMetadata{Filename: "doc.pdf", Page: 2}}, Score: 0.30},
	}}
	r := NewRetriever(index, 4)

	result, err := r.Retrieve(context.Background(), "query", 0)
	require.NoError(t, err)
	require.Len(t, result.Documents, 3)
	require.Len(t, result.Sources, 2)
	require.Equal(t, 1, result.Sources[0].Page)
	require.Equal(t, 0.10, result.Sources[0].Score)
	require.Equal(t, 2, result.Sources[1].Page)
}

func TestRetrieve_ContextJoinsInRankOrder(t *testing.T) {
	index := &fakeIndex{results: []ScoredChunk{
		{Chunk: model.Chunk{Text: "first"}, Score: 0.1},
		{Chunk: model.Chunk{Text: "second"}, Score: 0.2},
	}}
	r := NewRetriever(index, 4)

	result, err := r.Retrieve(context.Background(), "query", 0)
	require.NoError(t, err)
	require.Equal(t, "first\n\n---\n\nsecond", result.Context)
}

func TestRetrieve_UnknownFilenameFallback(t *testing.T) {
	index := &fakeIndex{results: []ScoredChunk{
		{Chunk: model.Chunk{Text: "anonymous"}, Score: 0.4},
	}}
	r := NewRetriever(index, 4)

	result, err := r.Retrieve(context.Background(), "query", 0)
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	require.Equal(t, "unknown", result.Sources[0].Filename)
}

func TestRetrieve_KOverride(t *testing.T) {
	index := &fakeIndex{results: []ScoredChunk{
		{Chunk: model.Chunk{Text: "a", Metadata: model.DocMetadata{Filename: "a"}}},
		{Chunk: model.Chunk{Text: "b", Metadata: model.DocMetadata{Filename: "b"}}},
		{Chunk: model.Chunk{Text: "c", Metadata: model.DocMetadata{Filename: "c"}}},
	}}
	r := NewRetriever(index, 4)

	result, err := r.Retrieve(context.Background(), "query", 2)
	require.NoError(t, err)
	require.Len(t, result.Documents, 2)
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := NewRetriever(&fakeIndex{}, 0)
	result, err := r.Retrieve(context.Background(), "query", 0)
	require.NoError(t, err)
	require.Empty(t, result.Documents)
	require.Empty(t, result.Sources)
	require.Equal(t, "", result.Context)
}
