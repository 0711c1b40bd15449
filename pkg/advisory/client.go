package advisory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/altura-advisory/retrieval/internal/chunker"
	"github.com/altura-advisory/retrieval/internal/db"
	dbRedis "github.com/altura-advisory/retrieval/internal/db/redis"
	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/index"
	memIndex "github.com/altura-advisory/retrieval/internal/index/memory"
	redisIndex "github.com/altura-advisory/retrieval/internal/index/redis"
	openaiTransport "github.com/altura-advisory/retrieval/internal/transport/openai"
	ingestuc "github.com/altura-advisory/retrieval/internal/usecase/ingest"
	retrievaluc "github.com/altura-advisory/retrieval/internal/usecase/retrieval"
	tenantuc "github.com/altura-advisory/retrieval/internal/usecase/tenant"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the embedded retrieval engine entry point.
type Client struct {
	store     *dbRedis.Store
	ingest    *ingestuc.Service
	retrieval *retrievaluc.Service
	tenants   *tenantuc.Service
}

// New creates a Client. Without WithRedis the index lives in memory.
// An embedder is required: either WithOpenAI or WithEmbedder. The
// provided context bounds the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:       "retrieval:",
		chunkSize:       1000,
		chunkOverlap:    200,
		topK:            5,
		scoreThreshold:  0.7,
		maxContextChars: 4000,
		logger:          zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{}

	var idx index.Index
	if len(cfg.addrs) > 0 {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Username: cfg.username,
			Password: cfg.password,
			DB:       cfg.db,
		})
		if err != nil {
			return nil, fmt.Errorf("advisory: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("advisory: database not ready: %w", err)
		}

		algo := db.VectorFlat
		if cfg.useHNSW {
			algo = db.VectorHNSW
		}
		rIdx := redisIndex.New(store, redisIndex.Config{
			KeyPrefix:       cfg.keyPrefix,
			Dimensions:      cfg.dimensions,
			Algorithm:       algo,
			HNSWM:           cfg.hnswM,
			HNSWEFConstruct: cfg.hnswEFConstruct,
		})
		if err := rIdx.EnsureIndex(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("advisory: ensure search index: %w", err)
		}
		c.store = store
		idx = rIdx
	} else {
		idx = memIndex.New(cfg.dimensions)
	}

	ch, err := chunker.New(cfg.chunkSize, cfg.chunkOverlap)
	if err != nil {
		if c.store != nil {
			c.store.Close()
		}
		return nil, fmt.Errorf("advisory: %w", err)
	}

	var baseMeta domain.Metadata
	c.ingest = ingestuc.New(ch, embedder, idx, cfg.dimensions, baseMeta, cfg.logger)
	c.retrieval = retrievaluc.New(embedder, idx, retrievaluc.Defaults{
		TopK:            cfg.topK,
		ScoreThreshold:  cfg.scoreThreshold,
		MaxContextChars: cfg.maxContextChars,
	}, cfg.logger)
	c.tenants = tenantuc.New(idx, cfg.logger)

	return c, nil
}

func buildEmbedder(cfg *clientConfig) (domain.Embedder, error) {
	if cfg.embedder != nil {
		return embedderAdapter{inner: cfg.embedder}, nil
	}
	if cfg.openaiModel != "" {
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.openaiKey,
			BaseURL:    cfg.openaiBaseURL,
			Model:      cfg.openaiModel,
			Dimensions: cfg.dimensions,
			Provider:   "openai",
			Logger:     cfg.logger,
		}), nil
	}
	return nil, errors.New("advisory: embedder required (use WithOpenAI or WithEmbedder)")
}

// embedderAdapter lifts the public Embedder onto the domain port.
type embedderAdapter struct {
	inner Embedder
}

func (a embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// Close releases the underlying store connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// AddDocument chunks, embeds and indexes one document for a tenant.
// It returns the number of chunks indexed. The whole document is
// indexed or none of it is.
func (c *Client) AddDocument(
	ctx context.Context, tenantID, documentID, text string, metadata map[string]string,
) (int, error) {
	var meta domain.Metadata
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			meta.Set(k, metadata[k])
		}
	}
	return c.ingest.AddDocument(ctx, tenantID, documentID, text, meta)
}

// Retrieve answers a tenant-scoped context query. It never returns an
// error; failures are reported in Result.Meta.
func (c *Client) Retrieve(ctx context.Context, tenantID, query string, opts ...RetrieveOption) Result {
	var settings retrieveSettings
	for _, o := range opts {
		o(&settings)
	}
	return resultFromDomain(c.retrieval.Retrieve(ctx, tenantID, query, settings.opts...))
}

// ListDocuments returns the tenant's distinct document IDs, sorted.
func (c *Client) ListDocuments(ctx context.Context, tenantID string) ([]string, error) {
	return c.tenants.ListDocuments(ctx, tenantID)
}

// DeleteTenant removes every record of one tenant. Deleting an absent
// tenant succeeds.
func (c *Client) DeleteTenant(ctx context.Context, tenantID string) error {
	return c.tenants.DeleteTenant(ctx, tenantID)
}

// Stats reports tenant and record counts across the whole index.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	stats, err := c.tenants.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	return statsFromDomain(stats), nil
}
