package rag

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	mdtext "github.com/yuin/goldmark/text"

	"docchat/internal/model"
)

// LoaderFunc turns one raw file into document records. Implementations drop
// records whose text is empty after trimming.
type LoaderFunc func(key string, r io.Reader) ([]model.Document, error)

var loaders = map[string]LoaderFunc{
	".txt": loadText,
	".md":  loadMarkdown,
}

// RegisterLoader installs a loader for a file extension (with leading dot).
// Binary-format extractors plug in here without touching the indexer.
func RegisterLoader(ext string, fn LoaderFunc) {
	key := strings.ToLower(strings.TrimSpace(ext))
	if key == "" || fn == nil {
		return
	}
	loaders[key] = fn
}

func SupportedExtension(key string) bool {
	_, ok := loaders[strings.ToLower(path.Ext(key))]
	return ok
}

// LoadDocument dispatches on the key's extension.
func LoadDocument(key string, r io.Reader) ([]model.Document, error) {
	fn, ok := loaders[strings.ToLower(path.Ext(key))]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %s", path.Ext(key))
	}
	return fn(key, r)
}

func loadText(key string, r io.Reader) ([]model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []model.Document{{
		Text:     text,
		Metadata: model.DocMetadata{Source: key, Filename: path.Base(key)},
	}}, nil
}

// loadMarkdown extracts plain text from the markdown AST so formatting
// syntax does not pollute the embeddings.
func loadMarkdown(key string, r io.Reader) ([]model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	md := goldmark.New()
	reader := mdtext.NewReader(data)
	doc := md.Parser().Parse(reader)

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if txt := extractNodeText(node, data); txt != "" {
			blocks = append(blocks, txt)
		}
	}
	text := strings.Join(blocks, "\n\n")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []model.Document{{
		Text:     text,
		Metadata: model.DocMetadata{Source: key, Filename: path.Base(key)},
	}}, nil
}

func extractNodeText(n ast.Node, source []byte) string {
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		var sb strings.Builder
		for i := 0; i < fenced.Lines().Len(); i++ {
			line := fenced.Lines().At(i)
			sb.Write(line.Value(source))
		}
		return strings.TrimSpace(sb.String())
	}
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			if node.(*ast.Text).SoftLineBreak() || node.(*ast.Text).HardLineBreak() {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
