// Package chunker splits markdown-like report text into ordered
// segments along header boundaries, then windows oversized segments by
// a rune budget with overlap.
package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/altura-advisory/retrieval/internal/domain"
)

const maxHeaderLevel = 4

// Segment is one chunk of source text with the header path that
// precedes it. The header line itself stays in Content.
type Segment struct {
	Content  string
	Metadata domain.Metadata
}

// Chunker splits documents. Safe for concurrent use.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a Chunker. chunkSize is the maximum segment length in
// runes; chunkOverlap is the number of trailing runes repeated at the
// start of the next window and must be smaller than chunkSize.
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, chunk size), got %d", chunkOverlap)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Chunk splits text into ordered segments. Oversized segments are
// subdivided with overlap, all sub-segments keeping the same header
// metadata. Empty segments are dropped; a document without headers
// yields windowed segments with empty metadata.
func (c *Chunker) Chunk(text string) ([]Segment, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("document is not valid UTF-8 text: %w", domain.ErrInvalidDocument)
	}

	var out []Segment
	for _, seg := range splitByHeaders(text) {
		if strings.TrimSpace(seg.Content) == "" {
			continue
		}
		for _, window := range c.window(seg.Content) {
			out = append(out, Segment{Content: window, Metadata: seg.Metadata.Clone()})
		}
	}
	return out, nil
}

// splitByHeaders cuts text at markdown header lines (levels 1-4). Each
// segment carries the path of headers in effect at its start; a header
// at level L resets all deeper levels.
func splitByHeaders(text string) []Segment {
	lines := strings.Split(text, "\n")

	headerPath := make([]string, maxHeaderLevel+1) // 1-based levels

	var segments []Segment
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		segments = append(segments, Segment{
			Content:  strings.Join(current, "\n"),
			Metadata: headerMetadata(headerPath),
		})
		current = nil
	}

	for _, line := range lines {
		level, title := parseHeader(line)
		if level == 0 {
			current = append(current, line)
			continue
		}
		flush()
		headerPath[level] = title
		for l := level + 1; l <= maxHeaderLevel; l++ {
			headerPath[l] = ""
		}
		current = append(current, line)
	}
	flush()

	return segments
}

// parseHeader returns the header level (1-4) and title of a markdown
// header line, or level 0 for a regular line.
func parseHeader(line string) (int, string) {
	trimmed := strings.TrimRight(line, " \t")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > maxHeaderLevel {
		return 0, ""
	}
	if level >= len(trimmed) || trimmed[level] != ' ' {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed[level+1:])
}

func headerMetadata(headerPath []string) domain.Metadata {
	var md domain.Metadata
	for level := 1; level <= maxHeaderLevel; level++ {
		if headerPath[level] != "" {
			md.Set(domain.HeaderKeys[level-1], headerPath[level])
		}
	}
	return md
}

// window subdivides content into fixed-size rune windows. The stride is
// chunkSize-chunkOverlap, so the last chunkOverlap runes of window i are
// the first chunkOverlap runes of window i+1.
func (c *Chunker) window(content string) []string {
	runes := []rune(content)
	if len(runes) <= c.chunkSize {
		return []string{content}
	}

	stride := c.chunkSize - c.chunkOverlap
	var windows []string
	for start := 0; start < len(runes); start += stride {
		end := start + c.chunkSize
		if end >= len(runes) {
			windows = append(windows, string(runes[start:]))
			break
		}
		windows = append(windows, string(runes[start:end]))
	}
	return windows
}
