package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls  int
	result []float32
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return c.result, nil
}

func (c *countingEmbedder) ModelName() string { return "test-model" }

func TestLruCache_SkipsRepeatEmbeds(t *testing.T) {
	next := &countingEmbedder{result: []float32{0.1, 0.2}}
	e := WrapLruCacheToEmbedder(next, 8, time.Minute)

	first, err := e.Embed(context.Background(), "hello", "retrieval_document")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "hello", "retrieval_document")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, next.calls)
}

func TestLruCache_TaskTypeSeparatesEntries(t *testing.T) {
	next := &countingEmbedder{result: []float32{0.1}}
	e := WrapLruCacheToEmbedder(next, 8, time.Minute)

	_, err := e.Embed(context.Background(), "hello", "retrieval_document")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "hello", "retrieval_query")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestLruCache_ReturnsIsolatedCopies(t *testing.T) {
	next := &countingEmbedder{result: []float32{0.5, 0.5}}
	e := WrapLruCacheToEmbedder(next, 8, time.Minute)

	first, err := e.Embed(context.Background(), "hello", "retrieval_document")
	require.NoError(t, err)
	first[0] = 99

	second, err := e.Embed(context.Background(), "hello", "retrieval_document")
	require.NoError(t, err)
	require.Equal(t, float32(0.5), second[0])
}

func TestLruCache_DisabledPassesThrough(t *testing.T) {
	next := &countingEmbedder{result: []float32{0.1}}
	require.Equal(t, next, WrapLruCacheToEmbedder(next, 0, time.Minute))
	require.Equal(t, next, WrapLruCacheToEmbedder(next, 8, 0))
}

func TestCacheKey(t *testing.T) {
	a := newCacheKey("m", "doc", "text")
	b := newCacheKey("m", "doc", "text")
	require.Equal(t, a.String(), b.String())
	require.NotEqual(t, a.String(), newCacheKey("m", "query", "text").String())
	require.Equal(t, "unknown", newCacheKey("  ", "doc", "text").model)
}
