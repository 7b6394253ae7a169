package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"docchat/internal/model"
)

// ChunkRecord is a chunk together with its embedding, ready for storage.
type ChunkRecord struct {
	Chunk     model.Chunk
	Embedding []float32
}

// ChunkMatch is a stored chunk returned from a similarity search. Score is
// the cosine distance to the query embedding, smaller is closer.
type ChunkMatch struct {
	Chunk model.Chunk
	Score float64
}

type ChunkRepo struct {
	db *sqlx.DB
}

func NewChunkRepo(db *sqlx.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// InsertBatch stores records in a single transaction, so a failed batch
// leaves the table unchanged.
func (r *ChunkRepo) InsertBatch(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	const query = `
		INSERT INTO chunks (content, source, filename, page, slide, sheet, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := time.Now().Unix()
	for _, rec := range records {
		meta := rec.Chunk.Metadata
		if _, err := tx.ExecContext(ctx, query,
			rec.Chunk.Text,
			meta.Source,
			meta.Filename,
			meta.Page,
			meta.Slide,
			meta.Sheet,
			pgvector.NewVector(rec.Embedding),
			now,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) Search(ctx context.Context, embedding []float32, limit int) ([]ChunkMatch, error) {
	const query = `
		SELECT content, source, filename, page, slide, sheet, embedding <=> $1 AS score
		FROM chunks
		ORDER BY score
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	matches := make([]ChunkMatch, 0, limit)
	for rows.Next() {
		var m ChunkMatch
		meta := &m.Chunk.Metadata
		if err := rows.Scan(&m.Chunk.Text, &meta.Source, &meta.Filename, &meta.Page, &meta.Slide, &meta.Sheet, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *ChunkRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chunks`)
	return err
}

func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM chunks`); err != nil {
		return 0, err
	}
	return count, nil
}
