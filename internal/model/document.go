package model

import "fmt"

// DocMetadata locates a piece of text inside its source file. At most one of
// Page/Slide/Sheet is set, depending on the source format; zero values mean
// "not applicable".
type DocMetadata struct {
	Source   string `json:"source"`
	Filename string `json:"filename"`
	Page     int    `json:"page,omitempty"`
	Slide    int    `json:"slide,omitempty"`
	Sheet    string `json:"sheet,omitempty"`
}

// Document is one unit of loaded content. Text is guaranteed non-empty after
// trimming; loaders drop empty records.
type Document struct {
	Text     string
	Metadata DocMetadata
}

// Chunk is a bounded slice of a document's text carrying the source metadata
// unmodified.
type Chunk struct {
	Text     string
	Metadata DocMetadata
}

// SourceInfo is the user-facing citation derived from a retrieved chunk.
type SourceInfo struct {
	Filename string  `json:"filename"`
	Page     int     `json:"page,omitempty"`
	Slide    int     `json:"slide,omitempty"`
	Sheet    string  `json:"sheet,omitempty"`
	Score    float64 `json:"score"`
}

func SourceInfoFromChunk(c Chunk, score float64) SourceInfo {
	filename := c.Metadata.Filename
	if filename == "" {
		filename = "unknown"
	}
	return SourceInfo{
		Filename: filename,
		Page:     c.Metadata.Page,
		Slide:    c.Metadata.Slide,
		Sheet:    c.Metadata.Sheet,
		Score:    score,
	}
}

// DedupKey identifies chunks that cite the same location of the same file.
func (s SourceInfo) DedupKey() string {
	return fmt.Sprintf("%s:%d:%d:%s", s.Filename, s.Page, s.Slide, s.Sheet)
}
