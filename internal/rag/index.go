package rag

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"docchat/internal/ai"
	"docchat/internal/model"
	"docchat/internal/repo"
)

const (
	TaskTypeDocument = "document"
	TaskTypeQuery    = "query"
)

// ScoredChunk is a retrieved chunk with its similarity distance, smaller is
// closer.
type ScoredChunk struct {
	Chunk model.Chunk
	Score float64
}

// VectorIndex persists chunk embeddings and answers similarity queries. The
// index owns the embedding function; the same embedder must vectorize both
// indexed chunks and queries.
type VectorIndex interface {
	Add(ctx context.Context, chunks []model.Chunk) error
	Search(ctx context.Context, query string, k int) ([]ScoredChunk, error)
	// Clear is best-effort: a backend failure is logged, not surfaced.
	Clear(ctx context.Context)
	// Count returns 0 on backend failure so status reporting never hard-fails.
	Count(ctx context.Context) int
}

type storeIndex struct {
	chunks   *repo.ChunkRepo
	embedder ai.IEmbedder
}

func NewStoreIndex(chunks *repo.ChunkRepo, embedder ai.IEmbedder) VectorIndex {
	return &storeIndex{chunks: chunks, embedder: embedder}
}

func (s *storeIndex) Add(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	records := make([]repo.ChunkRecord, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := s.embedder.Embed(ctx, chunk.Text, TaskTypeDocument)
		if err != nil {
			return err
		}
		records = append(records, repo.ChunkRecord{Chunk: chunk, Embedding: embedding})
	}
	return s.chunks.InsertBatch(ctx, records)
}

func (s *storeIndex) Search(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	embedding, err := s.embedder.Embed(ctx, query, TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	matches, err := s.chunks.Search(ctx, embedding, k)
	if err != nil {
		return nil, err
	}
	scored := make([]ScoredChunk, 0, len(matches))
	for _, m := range matches {
		scored = append(scored, ScoredChunk{Chunk: m.Chunk, Score: m.Score})
	}
	return scored, nil
}

func (s *storeIndex) Clear(ctx context.Context) {
	if err := s.chunks.DeleteAll(ctx); err != nil {
		logutil.GetLogger(ctx).Error("failed to clear vector index", zap.Error(err))
	}
}

func (s *storeIndex) Count(ctx context.Context) int {
	count, err := s.chunks.Count(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("failed to count indexed chunks", zap.Error(err))
		return 0
	}
	return count
}
