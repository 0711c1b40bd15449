// Package ingest turns raw documents into indexed chunk records. A
// document is ingested all-or-nothing: any chunking or embedding
// failure leaves the index untouched.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/domain/chunk"
	"github.com/altura-advisory/retrieval/internal/metrics"
)

// Service is the document ingestion pipeline.
type Service struct {
	chunker    Chunker
	embedder   Embedder
	index      Index
	dimensions int
	baseMeta   domain.Metadata
	logger     *zap.Logger
	now        func() time.Time
}

// New creates an ingestion service. dimensions > 0 enforces embedding
// length on every chunk. baseMeta is attached to every chunk alongside
// the derived entries (document ID, chunk index, total chunk count,
// ingestion timestamp); both are overridden by caller metadata, which
// in turn is overridden by header metadata.
func New(c Chunker, e Embedder, idx Index, dimensions int, baseMeta domain.Metadata, logger *zap.Logger) *Service {
	return &Service{
		chunker:    c,
		embedder:   e,
		index:      idx,
		dimensions: dimensions,
		baseMeta:   baseMeta,
		logger:     logger,
		now:        time.Now,
	}
}

// AddDocument chunks, embeds and indexes one document, returning the
// number of chunks indexed. Re-adding an existing document ID appends
// records; callers wanting replacement delete the tenant's chunks
// first.
func (s *Service) AddDocument(
	ctx context.Context, tenantID, documentID, text string, meta domain.Metadata,
) (int, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant ID is required: %w", domain.ErrInvalidDocument)
	}
	if documentID == "" {
		return 0, fmt.Errorf("document ID is required: %w", domain.ErrInvalidDocument)
	}

	segments, err := s.chunker.Chunk(text)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("chunk document %s: %w", documentID, err)
	}
	if len(segments) == 0 {
		metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("document %s has no indexable content: %w", documentID, domain.ErrEmptyDocument)
	}

	createdAt := s.now().UTC()
	records := make([]chunk.Record, 0, len(segments))
	for i, seg := range segments {
		result, err := s.embedder.Embed(ctx, seg.Content)
		if err != nil {
			metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("embed chunk %d of document %s: %w", i, documentID, err)
		}
		if s.dimensions > 0 && len(result.Embedding) != s.dimensions {
			metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
			return 0, fmt.Errorf(
				"chunk %d of document %s: got %d dimensions, want %d: %w",
				i, documentID, len(result.Embedding), s.dimensions, domain.ErrVectorDimMismatch,
			)
		}

		chunkMeta := s.baseMeta.Clone()
		chunkMeta.Set(domain.MetaDocumentID, documentID)
		chunkMeta.Set(domain.MetaChunkIndex, strconv.Itoa(i))
		chunkMeta.Set(domain.MetaTotalChunks, strconv.Itoa(len(segments)))
		chunkMeta.Set(domain.MetaIngestedAt, createdAt.Format(time.RFC3339Nano))
		chunkMeta.Merge(meta)
		chunkMeta.Merge(seg.Metadata)

		rec, err := chunk.New(tenantID, documentID, i, seg.Content, chunkMeta, result.Embedding, createdAt)
		if err != nil {
			metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
			return 0, fmt.Errorf("build chunk %d of document %s: %w", i, documentID, err)
		}
		records = append(records, rec)
	}

	if err := s.index.Insert(ctx, records); err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("index document %s: %w", documentID, err)
	}

	metrics.IngestDocumentsTotal.WithLabelValues("success").Inc()
	metrics.IngestChunksTotal.Add(float64(len(records)))

	s.logger.Info("Document ingested",
		zap.String("tenant_id", tenantID),
		zap.String("document_id", documentID),
		zap.Int("chunks", len(records)),
	)
	return len(records), nil
}
