package redis

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/domain/chunk"
)

// Hash field names. Double-underscore fields are engine-facing
// (indexed content and vector), the rest are record attributes.
const (
	fieldContent    = "__content"
	fieldVector     = "__vector"
	fieldTenantID   = "tenant_id"
	fieldDocumentID = "document_id"
	fieldChunkIndex = "chunk_index"
	fieldCreatedAt  = "created_at"
	fieldMetadata   = "__metadata"
)

var returnFields = []string{
	fieldContent, fieldVector, fieldTenantID,
	fieldDocumentID, fieldChunkIndex, fieldCreatedAt, fieldMetadata,
}

// buildHashFields converts a chunk record into a flat map for HSET.
// Metadata is serialized as a JSON pair array to keep its order.
func buildHashFields(r *chunk.Record) (map[string]string, error) {
	meta, err := json.Marshal(r.Metadata().Pairs())
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return map[string]string{
		fieldContent:    r.Content(),
		fieldVector:     vectorToBytes(r.Embedding()),
		fieldTenantID:   r.TenantID(),
		fieldDocumentID: r.DocumentID(),
		fieldChunkIndex: strconv.Itoa(r.ChunkIndex()),
		fieldCreatedAt:  r.CreatedAt().UTC().Format(time.RFC3339Nano),
		fieldMetadata:   string(meta),
	}, nil
}

// parseHashFields converts a flat hash map back into a chunk record.
func parseHashFields(id string, m map[string]string) (chunk.Record, error) {
	chunkIndex, err := strconv.Atoi(m[fieldChunkIndex])
	if err != nil {
		return chunk.Record{}, fmt.Errorf("parse chunk_index %q: %w", m[fieldChunkIndex], err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	if err != nil {
		return chunk.Record{}, fmt.Errorf("parse created_at %q: %w", m[fieldCreatedAt], err)
	}

	var pairs []domain.Pair
	if raw := m[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
			return chunk.Record{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return chunk.Reconstruct(
		id, m[fieldTenantID], m[fieldDocumentID], chunkIndex,
		m[fieldContent], domain.MetadataFromPairs(pairs),
		bytesToVector(m[fieldVector]), createdAt,
	), nil
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
