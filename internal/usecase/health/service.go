package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component is failing; search and
	// matching still work, possibly with reduced quality.
	Degraded Status = "degraded"
	// Unhealthy indicates the fragment store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. The store is the only hard dependency:
// without it no retrieval works, while embedding and reranking degrade to
// client-supplied vectors and fused order respectively.
type Service struct {
	store     StorePinger
	embedding ProviderChecker
	reranker  ProviderChecker
}

// New creates a Service. embedding and reranker can be nil.
func New(store StorePinger, embedding, reranker ProviderChecker) *Service {
	return &Service{store: store, embedding: embedding, reranker: reranker}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
		status = Unhealthy
	} else {
		checks["store"] = CheckOK
	}

	if s.embedding != nil {
		checks["embedding"] = checkProvider(ctx, s.embedding)
	}
	if s.reranker != nil {
		checks["reranker"] = checkProvider(ctx, s.reranker)
	}

	if status == Healthy {
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

func checkProvider(ctx context.Context, p ProviderChecker) CheckResult {
	if err := p.HealthCheck(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
