package rag

import (
	"context"
	"strings"

	"docchat/internal/model"
)

const contextSeparator = "\n\n---\n\n"

const defaultRetrievalK = 4

// RetrievalResult holds the documents selected for a query, the deduplicated
// citation list derived from them, and the combined context string.
type RetrievalResult struct {
	Documents []model.Chunk
	Sources   []model.SourceInfo
	Context   string
}

type Retriever struct {
	index VectorIndex
	k     int
}

func NewRetriever(index VectorIndex, k int) *Retriever {
	if k <= 0 {
		k = defaultRetrievalK
	}
	return &Retriever{index: index, k: k}
}

// Retrieve runs a similarity search and assembles the result in rank order.
// Sources are deduplicated by (filename, page, slide, sheet); when several
// chunks share a key, the first-seen one keeps the citation while the rest
// still contribute their text to the context.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) (*RetrievalResult, error) {
	if k <= 0 {
		k = r.k
	}
	scored, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	documents := make([]model.Chunk, 0, len(scored))
	sources := make([]model.SourceInfo, 0, len(scored))
	texts := make([]string, 0, len(scored))
	seen := make(map[string]struct{}, len(scored))
	for _, sc := range scored {
		documents = append(documents, sc.Chunk)
		texts = append(texts, sc.Chunk.Text)
		source := model.SourceInfoFromChunk(sc.Chunk, sc.Score)
		key := source.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		sources = append(sources, source)
	}
	return &RetrievalResult{
		Documents: documents,
		Sources:   sources,
		Context:   strings.Join(texts, contextSeparator),
	}, nil
}
