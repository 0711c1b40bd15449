package chunk

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/altura-advisory/retrieval/internal/domain"
)

// Record is the atomic retrievable unit (immutable value object).
// Records are never mutated after insertion; replacement is modeled as
// delete-then-reinsert by the caller.
type Record struct {
	id         string
	tenantID   string
	documentID string
	chunkIndex int
	content    string
	metadata   domain.Metadata
	embedding  []float32
	createdAt  time.Time
}

// New validates and creates a Record, assigning a fresh process-unique ID.
func New(
	tenantID, documentID string, chunkIndex int, content string,
	metadata domain.Metadata, embedding []float32, createdAt time.Time,
) (Record, error) {
	if tenantID == "" {
		return Record{}, fmt.Errorf("tenant ID is required")
	}
	if documentID == "" {
		return Record{}, fmt.Errorf("document ID is required")
	}
	if chunkIndex < 0 {
		return Record{}, fmt.Errorf("chunk index must be non-negative, got %d", chunkIndex)
	}
	if content == "" {
		return Record{}, fmt.Errorf("content is required")
	}
	if len(embedding) == 0 {
		return Record{}, fmt.Errorf("embedding is required")
	}

	return Record{
		id:         uuid.NewString(),
		tenantID:   tenantID,
		documentID: documentID,
		chunkIndex: chunkIndex,
		content:    content,
		metadata:   metadata.Clone(),
		embedding:  embedding,
		createdAt:  createdAt,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id, tenantID, documentID string, chunkIndex int, content string,
	metadata domain.Metadata, embedding []float32, createdAt time.Time,
) Record {
	return Record{
		id:         id,
		tenantID:   tenantID,
		documentID: documentID,
		chunkIndex: chunkIndex,
		content:    content,
		metadata:   metadata,
		embedding:  embedding,
		createdAt:  createdAt,
	}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// TenantID returns the owning tenant.
func (r *Record) TenantID() string { return r.tenantID }

// DocumentID returns the source document identifier.
func (r *Record) DocumentID() string { return r.documentID }

// ChunkIndex returns the zero-based position within the document.
func (r *Record) ChunkIndex() int { return r.chunkIndex }

// Content returns the chunk text.
func (r *Record) Content() string { return r.content }

// Metadata returns the ordered chunk metadata.
func (r *Record) Metadata() domain.Metadata { return r.metadata }

// Embedding returns the embedding vector.
func (r *Record) Embedding() []float32 { return r.embedding }

// CreatedAt returns the insertion timestamp.
func (r *Record) CreatedAt() time.Time { return r.createdAt }
