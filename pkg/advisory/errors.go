package advisory

import "github.com/altura-advisory/retrieval/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidDocument      = domain.ErrInvalidDocument
	ErrEmptyDocument        = domain.ErrEmptyDocument
	ErrEmbeddingUnavailable = domain.ErrEmbeddingUnavailable
	ErrIndexUnavailable     = domain.ErrIndexUnavailable
	ErrTenantNotFound       = domain.ErrTenantNotFound
	ErrVectorDimMismatch    = domain.ErrVectorDimMismatch
)
