package retrieval

import (
	"context"

	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/index"
)

// Searcher is the read side of the vector index.
type Searcher interface {
	Search(ctx context.Context, tenantID string, query index.Query, topK int, threshold float64) ([]index.Match, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
