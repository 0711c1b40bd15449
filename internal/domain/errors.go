package domain

import "errors"

var (
	// ErrInvalidDocument signals input that cannot be chunked (not valid text).
	ErrInvalidDocument = errors.New("invalid document")
	// ErrEmptyDocument signals a document that produced no chunks.
	ErrEmptyDocument = errors.New("empty document")
	// ErrEmbeddingUnavailable signals an embedding call that failed or timed out.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrIndexUnavailable signals a storage backend failure.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrTenantNotFound signals a missing tenant on administrative listing.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrVectorDimMismatch signals an embedding dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrCompletionUnavailable signals a language model call failure.
	ErrCompletionUnavailable = errors.New("completion unavailable")
)
