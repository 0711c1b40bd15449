package domain

// Header path metadata keys. The chunker emits at most these four
// levels; arbitrary-depth header keys are not permitted.
const (
	HeaderKey1 = "Header 1"
	HeaderKey2 = "Header 2"
	HeaderKey3 = "Header 3"
	HeaderKey4 = "Header 4"
)

// HeaderKeys lists the header path keys from outermost to innermost.
var HeaderKeys = []string{HeaderKey1, HeaderKey2, HeaderKey3, HeaderKey4}

// Metadata keys the ingestion pipeline derives for every chunk. Caller
// and header metadata override them on key conflict.
const (
	MetaDocumentID  = "document_id"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaIngestedAt  = "ingested_at"
)

// Pair is a single metadata entry.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Metadata is an ordered string-to-string mapping. Set updates an
// existing key in place and appends unknown keys, so insertion order is
// stable. The zero value is empty and usable.
type Metadata struct {
	pairs []Pair
}

// MetadataFromPairs builds Metadata preserving pair order. Duplicate
// keys collapse onto the first occurrence.
func MetadataFromPairs(pairs []Pair) Metadata {
	var m Metadata
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

// Set updates key in place or appends it.
func (m *Metadata) Set(key, value string) {
	for i := range m.pairs {
		if m.pairs[i].Key == key {
			m.pairs[i].Value = value
			return
		}
	}
	m.pairs = append(m.pairs, Pair{Key: key, Value: value})
}

// Get returns the value for key and whether it is present.
func (m Metadata) Get(key string) (string, bool) {
	for _, p := range m.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Len returns the number of entries.
func (m Metadata) Len() int { return len(m.pairs) }

// Pairs returns a copy of the entries in order.
func (m Metadata) Pairs() []Pair {
	out := make([]Pair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	return Metadata{pairs: m.Pairs()}
}

// Merge applies every entry of other on top of m. Entries of other win
// on key conflict; their values replace in place so m keeps its order.
func (m *Metadata) Merge(other Metadata) {
	for _, p := range other.pairs {
		m.Set(p.Key, p.Value)
	}
}
