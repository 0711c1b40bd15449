package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/altura-advisory/retrieval/internal/domain"
)

// errorCode is the machine-readable error identifier in the JSON envelope.
type errorCode string

const (
	codeBadRequest            errorCode = "bad_request"
	codeValidationFailed      errorCode = "validation_failed"
	codeUnauthorized          errorCode = "unauthorized"
	codeInvalidDocument       errorCode = "invalid_document"
	codeEmptyDocument         errorCode = "empty_document"
	codeVectorDimMismatch     errorCode = "vector_dim_mismatch"
	codeTenantNotFound        errorCode = "tenant_not_found"
	codeEmbeddingUnavailable  errorCode = "embedding_unavailable"
	codeCompletionUnavailable errorCode = "completion_unavailable"
	codeIndexUnavailable      errorCode = "index_unavailable"
	codeNotImplemented        errorCode = "not_implemented"
	codeInternalError         errorCode = "internal_error"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidDocument,
		domain.ErrEmptyDocument,
		domain.ErrVectorDimMismatch,
		domain.ErrTenantNotFound,
		domain.ErrEmbeddingUnavailable,
		domain.ErrCompletionUnavailable,
		domain.ErrIndexUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
