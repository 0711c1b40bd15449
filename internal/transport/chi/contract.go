package chi

import (
	"context"

	"github.com/altura-advisory/retrieval/internal/domain"
	domret "github.com/altura-advisory/retrieval/internal/domain/retrieval"
	"github.com/altura-advisory/retrieval/internal/index"
	"github.com/altura-advisory/retrieval/internal/usecase/advisor"
	"github.com/altura-advisory/retrieval/internal/usecase/health"
	retrievaluc "github.com/altura-advisory/retrieval/internal/usecase/retrieval"
)

// ingestService indexes one document for a tenant.
type ingestService interface {
	AddDocument(ctx context.Context, tenantID, documentID, text string, meta domain.Metadata) (int, error)
}

// retrievalService answers context queries. It never errors; failures
// are carried inside the result.
type retrievalService interface {
	Retrieve(ctx context.Context, tenantID, query string, opts ...retrievaluc.Option) domret.Result
}

// tenantService exposes the administrative operations.
type tenantService interface {
	ListDocuments(ctx context.Context, tenantID string) ([]string, error)
	DeleteTenant(ctx context.Context, tenantID string) error
	Stats(ctx context.Context) (index.Stats, error)
}

// advisorService produces an answer over retrieved context.
type advisorService interface {
	Advise(ctx context.Context, tenantID, question string) (advisor.Answer, error)
}

// healthService aggregates component health checks.
type healthService interface {
	Check(ctx context.Context) health.Report
}
