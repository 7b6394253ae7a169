package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docchat/internal/model"
)

// DefaultSeparators is ordered from coarse to fine: paragraph break, line
// break, Japanese sentence punctuation, latin punctuation, whitespace, and a
// final character-level fallback.
var DefaultSeparators = []string{"\n\n", "\n", "。", "、", "！", "？", ".", ",", " ", ""}

// Splitter cuts document text into bounded-size chunks by recursively
// applying the separator list, then merging small pieces back together with
// a trailing overlap. Lengths are counted in runes so CJK text is measured
// the same way as latin text.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk_overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", chunkOverlap, chunkSize)
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}, nil
}

// SplitDocuments splits every document in order, copying each document's
// metadata onto its chunks unmodified.
func (s *Splitter) SplitDocuments(docs []model.Document) []model.Chunk {
	var chunks []model.Chunk
	for _, doc := range docs {
		for _, text := range s.SplitText(doc.Text) {
			chunks = append(chunks, model.Chunk{Text: text, Metadata: doc.Metadata})
		}
	}
	return chunks
}

func (s *Splitter) SplitText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) <= s.chunkSize {
		return []string{trimmed}
	}
	return s.split(trimmed, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, cand := range separators {
		if cand == "" {
			break
		}
		if strings.Contains(text, cand) {
			sep = cand
			rest = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardSplit(text)
	}

	var final []string
	var good []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) < s.chunkSize {
			good = append(good, piece)
			continue
		}
		// Oversized piece: flush what we have, then recurse with the finer
		// separators.
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, s.hardSplit(piece)...)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge joins adjacent pieces up to chunkSize, carrying up to chunkOverlap
// trailing runes of each emitted chunk into the start of the next one. The
// pieces keep their trailing separators, so joining is plain concatenation.
func (s *Splitter) merge(pieces []string) []string {
	var docs []string
	var current []string
	total := 0
	for _, piece := range pieces {
		plen := utf8.RuneCountInString(piece)
		if total+plen > s.chunkSize && total > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for len(current) > 0 && (total > s.chunkOverlap || total+plen > s.chunkSize) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += plen
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// hardSplit is the character-level fallback: fixed rune windows with the
// configured overlap. It always terminates and never produces a chunk over
// chunkSize.
func (s *Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	step := s.chunkSize - s.chunkOverlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
