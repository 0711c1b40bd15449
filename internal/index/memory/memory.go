// Package memory is the in-memory reference implementation of the
// index contract. It ranks by keyword overlap with a fixed match score
// instead of vector similarity, so ingestion and retrieval can be
// exercised without an embedding provider or a running Redis.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/domain/chunk"
	"github.com/altura-advisory/retrieval/internal/index"
)

// matchScore is the fixed score assigned to any keyword match.
const matchScore = 0.8

// Compile-time check: Index implements index.Index.
var _ index.Index = (*Index)(nil)

// Index is a mutex-guarded in-memory chunk store.
type Index struct {
	mu        sync.RWMutex
	dimension int
	records   []chunk.Record
}

// New creates an empty in-memory index. dimension > 0 enforces a
// constant embedding length across all inserted records.
func New(dimension int) *Index {
	return &Index{dimension: dimension}
}

// Insert appends records. Duplicate document/chunk pairs are permitted.
func (x *Index) Insert(_ context.Context, records []chunk.Record) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.dimension > 0 {
		for _, r := range records {
			if len(r.Embedding()) != x.dimension {
				return fmt.Errorf(
					"record %s: got %d dimensions, want %d: %w",
					r.ID(), len(r.Embedding()), x.dimension, domain.ErrVectorDimMismatch,
				)
			}
		}
	}

	x.records = append(x.records, records...)
	return nil
}

// Search returns at most topK matches for one tenant with score >=
// threshold in the canonical order. Any stored chunk sharing at least
// one term with the query text scores the fixed matchScore. A
// non-positive topK yields no matches.
func (x *Index) Search(
	_ context.Context, tenantID string, query index.Query, topK int, threshold float64,
) ([]index.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	terms := tokenize(query.Text)

	var matches []index.Match
	for _, r := range x.records {
		if r.TenantID() != tenantID {
			continue
		}
		if !overlaps(terms, r.Content()) {
			continue
		}
		if matchScore < threshold {
			continue
		}
		matches = append(matches, index.Match{Record: r, Score: matchScore})
	}

	index.SortMatches(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// ListDocuments returns the tenant's distinct document IDs, sorted.
func (x *Index) ListDocuments(_ context.Context, tenantID string) ([]string, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	seen := make(map[string]struct{})
	var docs []string
	for _, r := range x.records {
		if r.TenantID() != tenantID {
			continue
		}
		if _, ok := seen[r.DocumentID()]; ok {
			continue
		}
		seen[r.DocumentID()] = struct{}{}
		docs = append(docs, r.DocumentID())
	}
	sort.Strings(docs)
	return docs, nil
}

// DeleteTenant removes every record of one tenant. Deleting an absent
// tenant succeeds trivially.
func (x *Index) DeleteTenant(_ context.Context, tenantID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	kept := x.records[:0]
	for _, r := range x.records {
		if r.TenantID() != tenantID {
			kept = append(kept, r)
		}
	}
	x.records = kept
	return nil
}

// Stats reports tenant and record counts.
func (x *Index) Stats(_ context.Context) (index.Stats, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	tenants := make(map[string]struct{})
	for _, r := range x.records {
		tenants[r.TenantID()] = struct{}{}
	}
	return index.Stats{TenantCount: len(tenants), RecordCount: len(x.records)}, nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// overlaps reports whether any query term occurs in content
// (case-insensitive whole-word match).
func overlaps(terms []string, content string) bool {
	if len(terms) == 0 {
		return false
	}
	contentTerms := make(map[string]struct{})
	for _, w := range tokenize(content) {
		contentTerms[strings.Trim(w, ".,;:!?()[]\"'")] = struct{}{}
	}
	for _, term := range terms {
		if _, ok := contentTerms[strings.Trim(term, ".,;:!?()[]\"'")]; ok {
			return true
		}
	}
	return false
}
