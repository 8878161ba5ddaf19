package health

import (
	"context"
	"errors"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{}, &mockChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	for _, name := range []string{"store", "embedding", "reranker"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("Checks[%s] = %q, want %q", name, r.Checks[name], CheckOK)
		}
	}
}

func TestCheck_StoreDownIsUnhealthy(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("Status = %q, want %q", r.Status, Unhealthy)
	}
	if r.Checks["store"] != CheckError {
		t.Errorf("Checks[store] = %q, want %q", r.Checks["store"], CheckError)
	}
}

func TestCheck_ProviderDownIsDegraded(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{err: errors.New("quota exceeded")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("Status = %q, want %q", r.Status, Degraded)
	}
	if r.Checks["store"] != CheckOK {
		t.Errorf("Checks[store] = %q, want %q", r.Checks["store"], CheckOK)
	}
}

func TestCheck_NilProvidersSkipped(t *testing.T) {
	svc := New(&mockPinger{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("Status = %q, want %q", r.Status, Healthy)
	}
	if len(r.Checks) != 1 {
		t.Errorf("Checks has %d entries, want only the store", len(r.Checks))
	}
}
