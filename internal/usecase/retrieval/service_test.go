package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/altura-advisory/retrieval/internal/domain"
	"github.com/altura-advisory/retrieval/internal/domain/chunk"
	"github.com/altura-advisory/retrieval/internal/index"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

type mockSearcher struct {
	searchFn func(ctx context.Context, tenantID string, query index.Query, topK int, threshold float64) ([]index.Match, error)
}

func (m *mockSearcher) Search(
	ctx context.Context, tenantID string, query index.Query, topK int, threshold float64,
) ([]index.Match, error) {
	return m.searchFn(ctx, tenantID, query, topK, threshold)
}

func match(t *testing.T, documentID string, chunkIndex int, content string, score float64) index.Match {
	t.Helper()
	rec := chunk.Reconstruct(
		"id-"+documentID, "tenant-a", documentID, chunkIndex, content,
		domain.Metadata{}, []float32{1}, time.Now(),
	)
	return index.Match{Record: rec, Score: score}
}

func defaults() Defaults {
	return Defaults{TopK: 5, ScoreThreshold: 0.7, MaxContextChars: 4000}
}

func TestRetrieve_Success(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	searcher := &mockSearcher{searchFn: func(
		_ context.Context, tenantID string, query index.Query, topK int, threshold float64,
	) ([]index.Match, error) {
		if tenantID != "tenant-a" {
			t.Errorf("tenant = %q", tenantID)
		}
		if query.Text != "dividend outlook" || len(query.Embedding) != 1 {
			t.Errorf("query = %+v", query)
		}
		if topK != 5 || threshold != 0.7 {
			t.Errorf("topK=%d threshold=%f", topK, threshold)
		}
		return []index.Match{
			match(t, "doc-1", 0, "chunk one", 0.95),
			match(t, "doc-2", 1, "chunk two", 0.9),
		}, nil
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "dividend outlook")

	if !result.Meta.SearchSuccessful {
		t.Fatalf("expected success, meta = %+v", result.Meta)
	}
	if len(result.Chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(result.Chunks))
	}
	if result.Chunks[0].Score != 0.95 || result.Chunks[1].Score != 0.9 {
		t.Errorf("scores = %f, %f", result.Chunks[0].Score, result.Chunks[1].Score)
	}
	if result.Meta.CandidatesFound != 2 || result.Meta.ChunksReturned != 2 {
		t.Errorf("meta counts = %+v", result.Meta)
	}
	if len(result.Sources) != 2 {
		t.Errorf("sources = %d, want 2", len(result.Sources))
	}
	if result.Meta.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestRetrieve_OptionsOverrideDefaults(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	searcher := &mockSearcher{searchFn: func(
		_ context.Context, _ string, _ index.Query, topK int, threshold float64,
	) ([]index.Match, error) {
		if topK != 3 || threshold != 0.9 {
			t.Errorf("topK=%d threshold=%f, want 3/0.9", topK, threshold)
		}
		return nil, nil
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "q",
		WithTopK(3), WithScoreThreshold(0.9), WithMaxContextChars(100))

	if result.Meta.RequestedTopK != 3 || result.Meta.ScoreThreshold != 0.9 {
		t.Errorf("meta = %+v", result.Meta)
	}
}

func TestRetrieve_EmbeddingFailureDegrades(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrEmbeddingUnavailable}
	searcher := &mockSearcher{searchFn: func(
		context.Context, string, index.Query, int, float64,
	) ([]index.Match, error) {
		t.Fatal("search must not run when embedding fails")
		return nil, nil
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "q")

	if result.Meta.SearchSuccessful {
		t.Fatal("expected SearchSuccessful=false")
	}
	if result.Meta.Error == "" {
		t.Error("expected error string in meta")
	}
	if !result.Empty() {
		t.Error("expected empty result")
	}
}

func TestRetrieve_IndexFailureDegrades(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	searcher := &mockSearcher{searchFn: func(
		context.Context, string, index.Query, int, float64,
	) ([]index.Match, error) {
		return nil, errors.New("search chunks: index unavailable")
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "q")

	if result.Meta.SearchSuccessful {
		t.Fatal("expected SearchSuccessful=false")
	}
	if !strings.Contains(result.Meta.Error, "index unavailable") {
		t.Errorf("meta error = %q", result.Meta.Error)
	}
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := New(&mockEmbedder{}, &mockSearcher{}, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "   ")

	if result.Meta.SearchSuccessful {
		t.Fatal("expected SearchSuccessful=false for empty query")
	}
	if !result.Empty() {
		t.Error("expected empty result")
	}
}

func TestRetrieve_NoMatchesHasReason(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	searcher := &mockSearcher{searchFn: func(
		context.Context, string, index.Query, int, float64,
	) ([]index.Match, error) {
		return nil, nil
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "q")

	if !result.Meta.SearchSuccessful {
		t.Fatal("an empty search is still a successful search")
	}
	if result.Meta.Reason == "" {
		t.Error("expected a reason for the empty result")
	}
}

func TestRetrieve_BudgetStopsBeforeExceeding(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	searcher := &mockSearcher{searchFn: func(
		context.Context, string, index.Query, int, float64,
	) ([]index.Match, error) {
		return []index.Match{
			match(t, "doc-1", 0, strings.Repeat("a", 50), 0.95),
			match(t, "doc-2", 0, strings.Repeat("b", 80), 0.9),
			match(t, "doc-3", 0, strings.Repeat("c", 30), 0.85),
		}, nil
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "q", WithMaxContextChars(120))

	// 50 fits; 50+80=130 exceeds 120, so the 80-chunk and everything
	// after it is dropped even though the 30-chunk alone would fit.
	if len(result.Chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(result.Chunks))
	}
	if len(result.Chunks[0].Content) != 50 {
		t.Errorf("kept chunk length = %d, want 50", len(result.Chunks[0].Content))
	}
	if result.Meta.CandidatesFound != 3 || result.Meta.ChunksReturned != 1 {
		t.Errorf("meta = %+v", result.Meta)
	}
}

func TestRetrieve_BudgetTooSmallForTopCandidate(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	searcher := &mockSearcher{searchFn: func(
		context.Context, string, index.Query, int, float64,
	) ([]index.Match, error) {
		return []index.Match{match(t, "doc-1", 0, strings.Repeat("a", 200), 0.95)}, nil
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "q", WithMaxContextChars(100))

	if !result.Empty() {
		t.Fatal("expected empty result")
	}
	if result.Meta.Reason == "" {
		t.Error("expected a reason")
	}
}

func TestRetrieve_SourcesDeduplicated(t *testing.T) {
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	searcher := &mockSearcher{searchFn: func(
		context.Context, string, index.Query, int, float64,
	) ([]index.Match, error) {
		return []index.Match{
			match(t, "doc-1", 0, "first", 0.95),
			match(t, "doc-1", 1, "second", 0.9),
			match(t, "doc-2", 0, "third", 0.85),
		}, nil
	}}

	svc := New(emb, searcher, defaults(), zap.NewNop())
	result := svc.Retrieve(context.Background(), "tenant-a", "q")

	if len(result.Sources) != 2 {
		t.Fatalf("sources = %d, want 2 (doc-1 deduplicated)", len(result.Sources))
	}
	if result.Sources[0].DocumentID != "doc-1" || result.Sources[0].Score != 0.95 {
		t.Errorf("first source = %+v, want doc-1 with best score", result.Sources[0])
	}
	if result.Sources[1].DocumentID != "doc-2" {
		t.Errorf("second source = %+v", result.Sources[1])
	}
}
