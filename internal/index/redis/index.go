// Package redis implements the index contract on a Redis 8+ search
// index. Chunks are stored as hashes under one key prefix with a
// tenant TAG field, so every query is pre-filtered to a single tenant
// before the KNN clause runs.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/altura-advisory/retrieval/internal/db"
	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/domain/chunk"
	"github.com/altura-advisory/retrieval/internal/index"
)

// pageSize bounds enumeration and deletion batches.
const pageSize = 500

// store is the consumer interface for the chunk index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, idx, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, idx, query string) (int, error)
}

// Compile-time check: Index implements index.Index.
var _ index.Index = (*Index)(nil)

// Config holds schema settings for the chunk index.
type Config struct {
	// KeyPrefix namespaces all keys, e.g. "retrieval:".
	KeyPrefix string
	// Dimensions is the embedding length enforced for every record.
	Dimensions int
	// Algorithm selects FLAT (exact, default) or HNSW.
	Algorithm       db.VectorAlgorithm
	HNSWM           int
	HNSWEFConstruct int
}

// Index is the Redis-backed chunk index.
type Index struct {
	store store
	cfg   Config
}

// New creates a Redis-backed index. Call EnsureIndex before use.
func New(s store, cfg Config) *Index {
	if cfg.Algorithm == "" {
		cfg.Algorithm = db.VectorFlat
	}
	return &Index{store: s, cfg: cfg}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (x *Index) EnsureIndex(ctx context.Context) error {
	exists, err := x.store.IndexExists(ctx, x.indexName())
	if err != nil {
		return fmt.Errorf("check index: %w: %w", domain.ErrIndexUnavailable, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     x.indexName(),
		Prefixes: []string{x.keyPrefix()},
		Fields: []db.IndexField{
			{Name: fieldTenantID, Type: db.IndexFieldTag},
			{Name: fieldDocumentID, Type: db.IndexFieldTag},
			{Name: fieldChunkIndex, Type: db.IndexFieldNumeric},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        x.cfg.Algorithm,
				VectorDim:         x.cfg.Dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           x.cfg.HNSWM,
				VectorEFConstruct: x.cfg.HNSWEFConstruct,
			},
		},
	}

	if err := x.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Insert appends records as one transactional batch, so a concurrent
// search sees the document either fully indexed or not at all. On an
// error the batch's keys are deleted best-effort in case the outcome
// of the write is unknown.
func (x *Index) Insert(ctx context.Context, records []chunk.Record) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(records))
	keys := make([]string, len(records))
	for i := range records {
		r := &records[i]
		if x.cfg.Dimensions > 0 && len(r.Embedding()) != x.cfg.Dimensions {
			return fmt.Errorf(
				"record %s: got %d dimensions, want %d: %w",
				r.ID(), len(r.Embedding()), x.cfg.Dimensions, domain.ErrVectorDimMismatch,
			)
		}
		fields, err := buildHashFields(r)
		if err != nil {
			return fmt.Errorf("record %s: %w", r.ID(), err)
		}
		keys[i] = x.recordKey(r.ID())
		items[i] = db.HashSetItem{Key: keys[i], Fields: fields}
	}

	if err := x.store.HSetMulti(ctx, items); err != nil {
		_ = x.store.Del(ctx, keys...)
		return fmt.Errorf("insert %d records: %w: %w", len(records), domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Search runs a tenant-scoped KNN query and re-ranks candidates by
// exact cosine similarity computed from the stored vectors, so ranking
// and threshold semantics match a brute-force scan even on an
// approximate engine index.
func (x *Index) Search(
	ctx context.Context, tenantID string, query index.Query, topK int, threshold float64,
) ([]index.Match, error) {
	if topK <= 0 {
		return nil, nil
	}

	sr, err := x.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    x.indexName(),
		Filter:       db.TagEquals(fieldTenantID, tenantID),
		Vector:       query.Embedding,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w: %w", domain.ErrIndexUnavailable, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	matches := make([]index.Match, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		rec, err := parseHashFields(x.recordID(entry.Key), entry.Fields)
		if err != nil {
			return nil, fmt.Errorf("parse record %s: %w", entry.Key, err)
		}
		if rec.TenantID() != tenantID {
			// Engine filter must never let this happen; drop defensively.
			continue
		}
		score := index.Cosine(query.Embedding, rec.Embedding())
		if score < threshold {
			continue
		}
		matches = append(matches, index.Match{Record: rec, Score: score})
	}

	index.SortMatches(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// ListDocuments returns the tenant's distinct document IDs, sorted.
func (x *Index) ListDocuments(ctx context.Context, tenantID string) ([]string, error) {
	filter := db.TagEquals(fieldTenantID, tenantID)

	seen := make(map[string]struct{})
	for offset := 0; ; offset += pageSize {
		sr, err := x.store.SearchList(ctx, x.indexName(), filter, offset, pageSize, []string{fieldDocumentID})
		if err != nil {
			return nil, fmt.Errorf("list documents: %w: %w", domain.ErrIndexUnavailable, err)
		}
		if sr == nil || len(sr.Entries) == 0 {
			break
		}
		for _, entry := range sr.Entries {
			if docID := entry.Fields[fieldDocumentID]; docID != "" {
				seen[docID] = struct{}{}
			}
		}
		if len(sr.Entries) < pageSize {
			break
		}
	}

	docs := make([]string, 0, len(seen))
	for docID := range seen {
		docs = append(docs, docID)
	}
	sort.Strings(docs)
	return docs, nil
}

// DeleteTenant removes every record of one tenant. All keys are
// collected first and removed with a single multi-key DEL, so a
// concurrent search sees the tenant fully present or fully gone.
// Deleting an absent tenant is a no-op.
func (x *Index) DeleteTenant(ctx context.Context, tenantID string) error {
	filter := db.TagEquals(fieldTenantID, tenantID)

	var keys []string
	for offset := 0; ; offset += pageSize {
		sr, err := x.store.SearchList(ctx, x.indexName(), filter, offset, pageSize, []string{fieldTenantID})
		if err != nil {
			return fmt.Errorf("find tenant records: %w: %w", domain.ErrIndexUnavailable, err)
		}
		if sr == nil || len(sr.Entries) == 0 {
			break
		}
		for _, entry := range sr.Entries {
			keys = append(keys, entry.Key)
		}
		if len(sr.Entries) < pageSize {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}

	if err := x.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete tenant records: %w: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Stats reports tenant and record counts.
func (x *Index) Stats(ctx context.Context) (index.Stats, error) {
	records, err := x.store.SearchCount(ctx, x.indexName(), "*")
	if err != nil {
		return index.Stats{}, fmt.Errorf("count records: %w: %w", domain.ErrIndexUnavailable, err)
	}

	tenants := make(map[string]struct{})
	for offset := 0; ; offset += pageSize {
		sr, err := x.store.SearchList(ctx, x.indexName(), "*", offset, pageSize, []string{fieldTenantID})
		if err != nil {
			return index.Stats{}, fmt.Errorf("enumerate tenants: %w: %w", domain.ErrIndexUnavailable, err)
		}
		if sr == nil || len(sr.Entries) == 0 {
			break
		}
		for _, entry := range sr.Entries {
			if t := entry.Fields[fieldTenantID]; t != "" {
				tenants[t] = struct{}{}
			}
		}
		if len(sr.Entries) < pageSize {
			break
		}
	}

	return index.Stats{TenantCount: len(tenants), RecordCount: records}, nil
}

func (x *Index) keyPrefix() string {
	return x.cfg.KeyPrefix + "chunks:"
}

func (x *Index) indexName() string {
	return x.cfg.KeyPrefix + "chunks:idx"
}

func (x *Index) recordKey(id string) string {
	return x.keyPrefix() + id
}

func (x *Index) recordID(key string) string {
	return strings.TrimPrefix(key, x.keyPrefix())
}
