package docsource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"docchat/internal/config"
)

func newLocal(t *testing.T) (Source, string) {
	t.Helper()
	dir := t.TempDir()
	source, err := New(config.DocSourceConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": dir},
	})
	require.NoError(t, err)
	return source, dir
}

func TestLocalSource_ListRecursive(t *testing.T) {
	source, dir := newLocal(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.md"), []byte("# b"), 0o644))

	files, err := source.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	keys := []string{files[0].Key, files[1].Key}
	require.Contains(t, keys, "a.txt")
	require.Contains(t, keys, "sub/b.md")
}

func TestLocalSource_MissingDir(t *testing.T) {
	source, err := New(config.DocSourceConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": filepath.Join(t.TempDir(), "missing")},
	})
	require.NoError(t, err)
	_, err = source.List(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestLocalSource_OpenReadsBack(t *testing.T) {
	source, dir := newLocal(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("content"), 0o644))

	rc, err := source.Open(context.Background(), "a.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "content", string(data))
}

func TestLocalSource_SaveThenList(t *testing.T) {
	source, _ := newLocal(t)
	require.NoError(t, source.Save(context.Background(), "new.txt", strings.NewReader("fresh")))

	files, err := source.List(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "new.txt", files[0].Key)
}

func TestLocalSource_RejectsTraversal(t *testing.T) {
	source, _ := newLocal(t)
	_, err := source.Open(context.Background(), "../escape.txt")
	require.Error(t, err)
	err = source.Save(context.Background(), "/abs/path.txt", strings.NewReader("x"))
	require.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.DocSourceConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestNew_LocalRequiresDir(t *testing.T) {
	_, err := New(config.DocSourceConfig{Type: "local"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "dir")
}
