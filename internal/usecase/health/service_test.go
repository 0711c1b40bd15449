package health

import (
	"context"
	"errors"
	"testing"
)

type mockStorePinger struct {
	err error
}

func (m *mockStorePinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["store"] != CheckOK || r.Checks["embedding"] != CheckOK {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_StoreErrorIsUnhealthy(t *testing.T) {
	svc := New(&mockStorePinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["store"] != CheckError {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_EmbeddingErrorIsDegraded(t *testing.T) {
	svc := New(&mockStorePinger{}, &mockEmbeddingChecker{err: errors.New("timeout")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["store"] != CheckOK || r.Checks["embedding"] != CheckError {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_NilComponentsSkipped(t *testing.T) {
	svc := New(nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}
