package service

import (
	"context"
	"io"
	"path"
	"strings"

	"docchat/internal/docsource"
	appErr "docchat/internal/pkg/errors"
	"docchat/internal/rag"
)

// IndexService exposes the indexing operation and document uploads to the
// transport layer.
type IndexService struct {
	indexer *rag.Indexer
	source  docsource.Source
}

func NewIndexService(indexer *rag.Indexer, source docsource.Source) *IndexService {
	return &IndexService{indexer: indexer, source: source}
}

func (s *IndexService) Index(ctx context.Context, clearExisting bool) *rag.IndexResult {
	return s.indexer.Index(ctx, clearExisting)
}

func (s *IndexService) Status(ctx context.Context) int {
	return s.indexer.Status(ctx)
}

func (s *IndexService) Clear(ctx context.Context) {
	s.indexer.Clear(ctx)
}

// Upload stores a new document in the corpus source. The file becomes
// searchable after the next indexing run.
func (s *IndexService) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	key := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if key == "" || key == "." || key == "/" {
		return "", appErr.ErrInvalid
	}
	if !rag.SupportedExtension(key) {
		return "", appErr.ErrInvalid
	}
	if err := s.source.Save(ctx, key, r); err != nil {
		return "", err
	}
	return key, nil
}
