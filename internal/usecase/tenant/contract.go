package tenant

import (
	"context"

	"github.com/altura-advisory/retrieval/internal/index"
)

// Index is the administrative surface of the vector index.
type Index interface {
	ListDocuments(ctx context.Context, tenantID string) ([]string, error)
	DeleteTenant(ctx context.Context, tenantID string) error
	Stats(ctx context.Context) (index.Stats, error)
}
