package advisory

import (
	"time"

	domret "github.com/altura-advisory/retrieval/internal/domain/retrieval"
	"github.com/altura-advisory/retrieval/internal/index"
	retrievaluc "github.com/altura-advisory/retrieval/internal/usecase/retrieval"
)

// Chunk is one retrieved chunk with its relevance score.
type Chunk struct {
	Content    string
	Score      float64
	DocumentID string
	ChunkIndex int
	Section    string
}

// Source identifies where a retrieved chunk came from.
type Source struct {
	DocumentID string
	Section    string
	Score      float64
}

// Meta describes how a retrieval was answered.
type Meta struct {
	Query            string
	TenantID         string
	Timestamp        time.Time
	SearchSuccessful bool
	Error            string
	Reason           string
	RequestedTopK    int
	CandidatesFound  int
	ChunksReturned   int
	ScoreThreshold   float64
}

// Result is the outcome of one retrieval. Context is the formatted
// text ready to hand to a language model; Chunks carry the raw pieces.
type Result struct {
	Context string
	Chunks  []Chunk
	Sources []Source
	Meta    Meta
}

// Stats summarizes index contents.
type Stats struct {
	Tenants int
	Records int
}

// RetrieveOption overrides one retrieval setting for a single call.
type RetrieveOption func(*retrieveSettings)

type retrieveSettings struct {
	opts []retrievaluc.Option
}

// WithTopK overrides the number of candidates requested.
func WithTopK(k int) RetrieveOption {
	return func(s *retrieveSettings) {
		s.opts = append(s.opts, retrievaluc.WithTopK(k))
	}
}

// WithScoreThreshold overrides the minimum similarity score.
func WithScoreThreshold(t float64) RetrieveOption {
	return func(s *retrieveSettings) {
		s.opts = append(s.opts, retrievaluc.WithScoreThreshold(t))
	}
}

// WithMaxContextChars overrides the context character budget.
func WithMaxContextChars(n int) RetrieveOption {
	return func(s *retrieveSettings) {
		s.opts = append(s.opts, retrievaluc.WithMaxContextChars(n))
	}
}

func resultFromDomain(r domret.Result) Result {
	chunks := make([]Chunk, len(r.Chunks))
	for i, c := range r.Chunks {
		chunks[i] = Chunk{
			Content:    c.Content,
			Score:      c.Score,
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Section:    c.Section(),
		}
	}

	sources := make([]Source, len(r.Sources))
	for i, s := range r.Sources {
		sources[i] = Source{DocumentID: s.DocumentID, Section: s.Section, Score: s.Score}
	}

	return Result{
		Context: retrievaluc.FormatForConsumption(r),
		Chunks:  chunks,
		Sources: sources,
		Meta: Meta{
			Query:            r.Meta.Query,
			TenantID:         r.Meta.TenantID,
			Timestamp:        r.Meta.Timestamp,
			SearchSuccessful: r.Meta.SearchSuccessful,
			Error:            r.Meta.Error,
			Reason:           r.Meta.Reason,
			RequestedTopK:    r.Meta.RequestedTopK,
			CandidatesFound:  r.Meta.CandidatesFound,
			ChunksReturned:   r.Meta.ChunksReturned,
			ScoreThreshold:   r.Meta.ScoreThreshold,
		},
	}
}

func statsFromDomain(s index.Stats) Stats {
	return Stats{Tenants: s.TenantCount, Records: s.RecordCount}
}
