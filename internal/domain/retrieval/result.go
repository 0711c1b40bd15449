// Package retrieval holds the transient result types of one retrieval
// call. Nothing here is persisted.
package retrieval

import (
	"time"

	"github.com/altura-advisory/retrieval/internal/domain"
)

// Chunk is one retrieved chunk with its relevance score.
type Chunk struct {
	Content    string
	Score      float64
	DocumentID string
	ChunkIndex int
	Metadata   domain.Metadata
}

// Section returns a human-readable section label derived from the
// deepest header present in the chunk metadata.
func (c Chunk) Section() string {
	for i := len(domain.HeaderKeys) - 1; i >= 0; i-- {
		if v, ok := c.Metadata.Get(domain.HeaderKeys[i]); ok && v != "" {
			return v
		}
	}
	return ""
}

// Source identifies where a retrieved chunk came from.
type Source struct {
	DocumentID string
	Section    string
	Score      float64
}

// Meta describes how a retrieval was answered.
type Meta struct {
	Query            string
	TenantID         string
	Timestamp        time.Time
	SearchSuccessful bool
	Error            string
	Reason           string
	RequestedTopK    int
	CandidatesFound  int
	ChunksReturned   int
	ScoreThreshold   float64
}

// Result is the outcome of one retrieval: budget-trimmed chunks in rank
// order, deduplicated sources, and retrieval metadata.
type Result struct {
	Chunks  []Chunk
	Sources []Source
	Meta    Meta
}

// Empty reports whether the retrieval produced no chunks.
func (r Result) Empty() bool { return len(r.Chunks) == 0 }
