// Package index defines the tenant-scoped vector index contract shared
// by the Redis-backed implementation and the in-memory reference one.
package index

import (
	"context"
	"math"
	"sort"

	"github.com/altura-advisory/retrieval/internal/domain/chunk"
)

// Match is one search hit: a stored record and its relevance score.
type Match struct {
	Record chunk.Record
	Score  float64
}

// Query carries both representations of a search query. The Redis
// implementation ranks by the embedding; the in-memory reference one
// ranks by keyword overlap with Text.
type Query struct {
	Text      string
	Embedding []float32
}

// Stats summarizes index contents.
type Stats struct {
	TenantCount int
	RecordCount int
}

// Index stores chunk records and answers tenant-scoped similarity
// queries. Insert is append-only: duplicate document_id/chunk_index
// pairs create additional records, callers wanting replacement delete
// the tenant's old chunks first. Search returns at most topK matches
// with score >= threshold in the canonical order (see SortMatches) and
// never crosses tenant boundaries. DeleteTenant is idempotent.
type Index interface {
	Insert(ctx context.Context, records []chunk.Record) error
	Search(ctx context.Context, tenantID string, query Query, topK int, threshold float64) ([]Match, error)
	ListDocuments(ctx context.Context, tenantID string) ([]string, error)
	DeleteTenant(ctx context.Context, tenantID string) error
	Stats(ctx context.Context) (Stats, error)
}

// SortMatches applies the canonical result order: score descending,
// ties broken by document ID ascending, then chunk index ascending.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Record.DocumentID() != matches[j].Record.DocumentID() {
			return matches[i].Record.DocumentID() < matches[j].Record.DocumentID()
		}
		return matches[i].Record.ChunkIndex() < matches[j].Record.ChunkIndex()
	})
}

// Cosine computes cosine similarity between two vectors in [-1, 1].
// A zero vector (or length mismatch) scores 0 rather than dividing by
// zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
