package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSupportedExtension(t *testing.T) {
	require.True(t, SupportedExtension("notes.txt"))
	require.True(t, SupportedExtension("dir/readme.MD"))
	require.False(t, SupportedExtension("image.png"))
	require.False(t, SupportedExtension("noextension"))
}

func TestLoadDocument_Text(t *testing.T) {
	docs, err := LoadDocument("dir/a.txt", strings.NewReader("Hello world."))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "Hello world.", docs[0].Text)
	require.Equal(t, "a.txt", docs[0].Metadata.Filename)
	require.Equal(t, "dir/a.txt", docs[0].Metadata.Source)
}

func TestLoadDocument_TextDropsEmpty(t *testing.T) {
	docs, err := LoadDocument("blank.txt", strings.NewReader("   \n\t  "))
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestLoadDocument_UnsupportedExtension(t *testing.T) {
	_, err := LoadDocument("file.xyz", strings.NewReader("data"))
	require.Error(t, err)
}

func TestLoadDocument_MarkdownStripsSyntax(t *testing.T) {
	md := "# Title\n\nSome **bold** text with a [link](https://example.com).\n\n- item one\n- item two\n"
	docs, err := LoadDocument("doc.md", strings.NewReader(md))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	text := docs[0].Text
	require.Contains(t, text, "Title")
	require.Contains(t, text, "bold")
	require.Contains(t, text, "link")
	require.Contains(t, text, "item one")
	require.NotContains(t, text, "**")
	require.NotContains(t, text, "](")
	require.NotContains(t, text, "# ")
}

func TestLoadDocument_MarkdownKeepsCodeBlocks(t *testing.T) {
	md := "Intro.\n\n```go\nfunc main() {}\n```\n"
	docs, err := LoadDocument("doc.md", strings.NewReader(md))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Contains(t, docs[0].Text, "func main() {}")
}

func TestRegisterLoader(t *testing.T) {
	require.False(t, SupportedExtension("data.custom"))
	RegisterLoader(".custom", loadText)
	t.Cleanup(func() { delete(loaders, ".custom") })
	require.True(t, SupportedExtension("data.custom"))
}
