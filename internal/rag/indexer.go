package rag

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"docchat/internal/docsource"
	"docchat/internal/model"
)

// IndexResult reports one indexing run. Empty-corpus conditions are not
// errors: they come back as a zero-count result with a descriptive entry in
// Errors.
type IndexResult struct {
	IndexedCount int      `json:"indexed_count"`
	ChunkCount   int      `json:"chunk_count"`
	Errors       []string `json:"errors"`
}

// Indexer loads every supported file from the document source, chunks it and
// writes the chunks to the vector index.
type Indexer struct {
	source   docsource.Source
	splitter *Splitter
	index    VectorIndex
}

func NewIndexer(source docsource.Source, splitter *Splitter, index VectorIndex) *Indexer {
	return &Indexer{source: source, splitter: splitter, index: index}
}

// Index runs one full indexing pass. A single unreadable file is logged,
// recorded in Errors and skipped; a batch-add failure returns zero counts so
// documents are never credited as indexed when the write failed. Re-running
// without clearExisting is additive and does not deduplicate against
// previously indexed chunks.
func (ix *Indexer) Index(ctx context.Context, clearExisting bool) *IndexResult {
	logger := logutil.GetLogger(ctx)
	result := &IndexResult{Errors: []string{}}

	if clearExisting {
		ix.index.Clear(ctx)
	}

	files, err := ix.source.List(ctx)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	var docs []model.Document
	for _, file := range files {
		if !SupportedExtension(file.Key) {
			continue
		}
		loaded, err := ix.loadFile(ctx, file.Key)
		if err != nil {
			logger.Warn("failed to load document, skipping",
				zap.String("key", file.Key), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("load %s: %v", file.Key, err))
			continue
		}
		docs = append(docs, loaded...)
	}
	if len(docs) == 0 {
		result.Errors = append(result.Errors, "No documents found")
		return result
	}

	chunks := ix.splitter.SplitDocuments(docs)
	if len(chunks) == 0 {
		result.IndexedCount = len(docs)
		result.Errors = append(result.Errors, "No chunks generated after splitting")
		return result
	}

	if err := ix.index.Add(ctx, chunks); err != nil {
		logger.Error("failed to add chunks to index", zap.Error(err))
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	result.IndexedCount = len(docs)
	result.ChunkCount = len(chunks)
	logger.Info("indexing finished",
		zap.Int("documents", result.IndexedCount),
		zap.Int("chunks", result.ChunkCount))
	return result
}

func (ix *Indexer) loadFile(ctx context.Context, key string) ([]model.Document, error) {
	rc, err := ix.source.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return LoadDocument(key, rc)
}

// Status reports the number of indexed chunks, 0 when the backend is
// unreachable.
func (ix *Indexer) Status(ctx context.Context) int {
	return ix.index.Count(ctx)
}

func (ix *Indexer) Clear(ctx context.Context) {
	ix.index.Clear(ctx)
}
