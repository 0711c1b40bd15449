// Package retrieval answers tenant-scoped context queries: embed the
// query, search the index, trim to the character budget and annotate
// the outcome. Retrieve never returns an error; failures degrade to an
// empty result with diagnostics in Meta.
package retrieval

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	domret "github.com/altura-advisory/retrieval/internal/domain/retrieval"
	"github.com/altura-advisory/retrieval/internal/index"
	"github.com/altura-advisory/retrieval/internal/metrics"
)

// Defaults hold per-service retrieval settings, overridable per call.
type Defaults struct {
	TopK            int
	ScoreThreshold  float64
	MaxContextChars int
}

// Option overrides one retrieval setting for a single call.
type Option func(*Defaults)

// WithTopK overrides the number of candidates requested.
func WithTopK(k int) Option {
	return func(d *Defaults) { d.TopK = k }
}

// WithScoreThreshold overrides the minimum similarity score.
func WithScoreThreshold(t float64) Option {
	return func(d *Defaults) { d.ScoreThreshold = t }
}

// WithMaxContextChars overrides the context character budget.
func WithMaxContextChars(n int) Option {
	return func(d *Defaults) { d.MaxContextChars = n }
}

// Service is the retrieval agent.
type Service struct {
	embedder Embedder
	index    Searcher
	defaults Defaults
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a retrieval service with the given defaults.
func New(e Embedder, idx Searcher, defaults Defaults, logger *zap.Logger) *Service {
	return &Service{
		embedder: e,
		index:    idx,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// Retrieve answers one query for one tenant. The result is always
// usable: on any failure it is empty with Meta.SearchSuccessful=false
// and the error string recorded.
func (s *Service) Retrieve(ctx context.Context, tenantID, query string, opts ...Option) domret.Result {
	cfg := s.defaults
	for _, opt := range opts {
		opt(&cfg)
	}

	meta := domret.Meta{
		Query:          query,
		TenantID:       tenantID,
		Timestamp:      s.now().UTC(),
		RequestedTopK:  cfg.TopK,
		ScoreThreshold: cfg.ScoreThreshold,
	}

	if strings.TrimSpace(query) == "" {
		meta.SearchSuccessful = false
		meta.Error = "query is empty"
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return domret.Result{Meta: meta}
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("Query embedding failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		meta.SearchSuccessful = false
		meta.Error = err.Error()
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return domret.Result{Meta: meta}
	}

	matches, err := s.index.Search(
		ctx, tenantID,
		index.Query{Text: query, Embedding: emb.Embedding},
		cfg.TopK, cfg.ScoreThreshold,
	)
	if err != nil {
		s.logger.Warn("Index search failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
		meta.SearchSuccessful = false
		meta.Error = err.Error()
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return domret.Result{Meta: meta}
	}

	meta.SearchSuccessful = true
	meta.CandidatesFound = len(matches)

	chunks, contextChars := trimToBudget(matches, cfg.MaxContextChars)
	meta.ChunksReturned = len(chunks)
	if len(chunks) == 0 {
		if len(matches) == 0 {
			meta.Reason = "no relevant chunks found"
		} else {
			meta.Reason = "context budget too small for top candidate"
		}
	}

	metrics.RetrievalRequestsTotal.WithLabelValues("success").Inc()
	metrics.RetrievalChunksReturned.Observe(float64(len(chunks)))
	metrics.RetrievalContextChars.Observe(float64(contextChars))

	return domret.Result{
		Chunks:  chunks,
		Sources: collectSources(chunks),
		Meta:    meta,
	}
}

// trimToBudget accumulates matches in rank order and stops at the
// first chunk that would push the running total past the budget.
// Lower-ranked chunks are dropped even if they would individually fit.
func trimToBudget(matches []index.Match, maxContextChars int) ([]domret.Chunk, int) {
	var chunks []domret.Chunk
	total := 0
	for _, m := range matches {
		n := len([]rune(m.Record.Content()))
		if maxContextChars > 0 && total+n > maxContextChars {
			break
		}
		total += n
		chunks = append(chunks, domret.Chunk{
			Content:    m.Record.Content(),
			Score:      m.Score,
			DocumentID: m.Record.DocumentID(),
			ChunkIndex: m.Record.ChunkIndex(),
			Metadata:   m.Record.Metadata(),
		})
	}
	return chunks, total
}

// collectSources derives one source per (document, section) pair in
// rank order, keeping the score of the best-ranked chunk.
func collectSources(chunks []domret.Chunk) []domret.Source {
	type key struct{ doc, section string }
	seen := make(map[key]struct{}, len(chunks))

	var sources []domret.Source
	for _, c := range chunks {
		k := key{doc: c.DocumentID, section: c.Section()}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sources = append(sources, domret.Source{
			DocumentID: c.DocumentID,
			Section:    c.Section(),
			Score:      c.Score,
		})
	}
	return sources
}
