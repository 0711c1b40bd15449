// Package chi is the HTTP API: document ingestion, retrieval, advisory
// answers and tenant administration over hand-written chi handlers.
package chi

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/altura-advisory/retrieval/internal/domain"
	domret "github.com/altura-advisory/retrieval/internal/domain/retrieval"
	healthuc "github.com/altura-advisory/retrieval/internal/usecase/health"
	retrievaluc "github.com/altura-advisory/retrieval/internal/usecase/retrieval"
)

// Server holds the use case services behind the HTTP handlers.
type Server struct {
	ingest        ingestService
	retrieval     retrievalService
	tenants       tenantService
	advisor       advisorService
	health        healthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. advisor may be nil when no
// completion model is configured; POST /advise then answers 501.
func NewServer(
	ingest ingestService,
	retrieval retrievalService,
	tenants tenantService,
	advisor advisorService,
	health healthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:    ingest,
		retrieval: retrieval,
		tenants:   tenants,
		advisor:   advisor,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidDocument, http.StatusBadRequest, codeInvalidDocument),
		sentinelHandler(domain.ErrEmptyDocument, http.StatusBadRequest, codeEmptyDocument),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrTenantNotFound, http.StatusNotFound, codeTenantNotFound),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, codeEmbeddingUnavailable),
		sentinelHandler(domain.ErrCompletionUnavailable, http.StatusBadGateway, codeCompletionUnavailable),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeIndexUnavailable),
	}
	return s
}

// RegisterRoutes mounts all API routes on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/documents", s.AddDocument)
	r.Post("/retrieve", s.Retrieve)
	r.Post("/advise", s.Advise)
	r.Get("/tenants/{tenantID}/documents", s.ListDocuments)
	r.Delete("/tenants/{tenantID}", s.DeleteTenant)
	r.Get("/stats", s.Stats)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type ingestRequest struct {
	TenantID   string            `json:"tenant_id"`
	DocumentID string            `json:"document_id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type ingestResponse struct {
	TenantID      string `json:"tenant_id"`
	DocumentID    string `json:"document_id"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

// AddDocument handles POST /documents.
func (s *Server) AddDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "tenant_id is required")
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "document_id is required")
		return
	}

	count, err := s.ingest.AddDocument(
		r.Context(), req.TenantID, req.DocumentID, req.Text, metadataFromRequest(req.Metadata),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingestResponse{
		TenantID:      req.TenantID,
		DocumentID:    req.DocumentID,
		ChunksIndexed: count,
	})
}

type retrieveRequest struct {
	TenantID        string   `json:"tenant_id"`
	Query           string   `json:"query"`
	TopK            *int     `json:"top_k,omitempty"`
	ScoreThreshold  *float64 `json:"score_threshold,omitempty"`
	MaxContextChars *int     `json:"max_context_chars,omitempty"`
}

type chunkPayload struct {
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Section    string  `json:"section,omitempty"`
}

type sourcePayload struct {
	DocumentID string  `json:"document_id"`
	Section    string  `json:"section,omitempty"`
	Score      float64 `json:"score"`
}

type metaPayload struct {
	Query            string  `json:"query"`
	TenantID         string  `json:"tenant_id"`
	Timestamp        string  `json:"timestamp"`
	SearchSuccessful bool    `json:"search_successful"`
	Error            string  `json:"error,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	RequestedTopK    int     `json:"requested_top_k"`
	CandidatesFound  int     `json:"candidates_found"`
	ChunksReturned   int     `json:"chunks_returned"`
	ScoreThreshold   float64 `json:"score_threshold"`
}

type retrieveResponse struct {
	Context string          `json:"context"`
	Chunks  []chunkPayload  `json:"chunks"`
	Sources []sourcePayload `json:"sources"`
	Meta    metaPayload     `json:"meta"`
}

// Retrieve handles POST /retrieve. Retrieval failures are reported
// inside the 200 response body, not as HTTP errors.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "tenant_id is required")
		return
	}

	var opts []retrievaluc.Option
	if req.TopK != nil {
		opts = append(opts, retrievaluc.WithTopK(*req.TopK))
	}
	if req.ScoreThreshold != nil {
		opts = append(opts, retrievaluc.WithScoreThreshold(*req.ScoreThreshold))
	}
	if req.MaxContextChars != nil {
		opts = append(opts, retrievaluc.WithMaxContextChars(*req.MaxContextChars))
	}

	result := s.retrieval.Retrieve(r.Context(), req.TenantID, req.Query, opts...)
	writeJSON(w, http.StatusOK, resultToResponse(result))
}

type adviseRequest struct {
	TenantID string `json:"tenant_id"`
	Question string `json:"question"`
}

type adviseResponse struct {
	Answer  string          `json:"answer"`
	Sources []sourcePayload `json:"sources"`
	Meta    metaPayload     `json:"meta"`
}

// Advise handles POST /advise.
func (s *Server) Advise(w http.ResponseWriter, r *http.Request) {
	if s.advisor == nil {
		writeError(w, http.StatusNotImplemented, codeNotImplemented, "no completion model configured")
		return
	}

	var req adviseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "tenant_id is required")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "question is required")
		return
	}

	answer, err := s.advisor.Advise(r.Context(), req.TenantID, req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, adviseResponse{
		Answer:  answer.Text,
		Sources: sourcesToPayload(answer.Retrieval.Sources),
		Meta:    metaToPayload(answer.Retrieval.Meta),
	})
}

type listDocumentsResponse struct {
	TenantID  string   `json:"tenant_id"`
	Documents []string `json:"documents"`
}

// ListDocuments handles GET /tenants/{tenantID}/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	docs, err := s.tenants.ListDocuments(r.Context(), tenantID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listDocumentsResponse{
		TenantID:  tenantID,
		Documents: docs,
	})
}

// DeleteTenant handles DELETE /tenants/{tenantID}.
func (s *Server) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	if err := s.tenants.DeleteTenant(r.Context(), tenantID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	Tenants int `json:"tenants"`
	Records int `json:"records"`
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tenants.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Tenants: stats.TenantCount,
		Records: stats.RecordCount,
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// metadataFromRequest converts the JSON metadata object into ordered
// metadata. JSON objects carry no order, so keys are sorted for a
// deterministic result.
func metadataFromRequest(m map[string]string) domain.Metadata {
	var meta domain.Metadata
	if len(m) == 0 {
		return meta
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta.Set(k, m[k])
	}
	return meta
}

func resultToResponse(result domret.Result) retrieveResponse {
	chunks := make([]chunkPayload, len(result.Chunks))
	for i, c := range result.Chunks {
		chunks[i] = chunkPayload{
			Content:    c.Content,
			Score:      c.Score,
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Section:    c.Section(),
		}
	}

	return retrieveResponse{
		Context: retrievaluc.FormatForConsumption(result),
		Chunks:  chunks,
		Sources: sourcesToPayload(result.Sources),
		Meta:    metaToPayload(result.Meta),
	}
}

func sourcesToPayload(sources []domret.Source) []sourcePayload {
	out := make([]sourcePayload, len(sources))
	for i, src := range sources {
		out[i] = sourcePayload{
			DocumentID: src.DocumentID,
			Section:    src.Section,
			Score:      src.Score,
		}
	}
	return out
}

func metaToPayload(meta domret.Meta) metaPayload {
	return metaPayload{
		Query:            meta.Query,
		TenantID:         meta.TenantID,
		Timestamp:        meta.Timestamp.Format(time.RFC3339Nano),
		SearchSuccessful: meta.SearchSuccessful,
		Error:            meta.Error,
		Reason:           meta.Reason,
		RequestedTopK:    meta.RequestedTopK,
		CandidatesFound:  meta.CandidatesFound,
		ChunksReturned:   meta.ChunksReturned,
		ScoreThreshold:   meta.ScoreThreshold,
	}
}
