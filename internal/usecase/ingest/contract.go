package ingest

import (
	"context"

	"github.com/altura-advisory/retrieval/internal/chunker"
	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/domain/chunk"
)

// Index is the write side of the vector index.
type Index interface {
	Insert(ctx context.Context, records []chunk.Record) error
}

// Chunker splits document text into ordered segments.
type Chunker interface {
	Chunk(text string) ([]chunker.Segment, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
