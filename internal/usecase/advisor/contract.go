package advisor

import (
	"context"

	domret "github.com/altura-advisory/retrieval/internal/domain/retrieval"
	retrievaluc "github.com/altura-advisory/retrieval/internal/usecase/retrieval"
)

// Retriever answers tenant-scoped context queries.
type Retriever interface {
	Retrieve(ctx context.Context, tenantID, query string, opts ...retrievaluc.Option) domret.Result
}

// Completer asks the language model for an answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
