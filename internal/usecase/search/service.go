package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parley-ai/recall/internal/domain/search/request"
	"github.com/parley-ai/recall/internal/domain/search/result"
	"github.com/parley-ai/recall/internal/metrics"
	"github.com/parley-ai/recall/internal/store"
)

// overfetchFactor is how many extra candidates each index lookup returns to
// tolerate imperfect overlap between the lexical and semantic sets before
// final ranking.
const overfetchFactor = 3

const defaultRerankTimeout = 5 * time.Second

// Service is the hybrid scorer: it fans a query out to the lexical and ANN
// indexes, fuses the scores with configurable weights, and optionally hands
// the top of the ranking to an external reranker.
type Service struct {
	repo Repository

	queryModelVersion string
	probes            int

	reranker      Reranker
	rerankTopK    int
	rerankTimeout time.Duration

	logger *zap.Logger
}

// New creates a search service. queryModelVersion stamps ANN queries so the
// store can refuse cross-version comparisons.
func New(repo Repository, queryModelVersion string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:              repo,
		queryModelVersion: queryModelVersion,
		rerankTimeout:     defaultRerankTimeout,
		logger:            logger,
	}
}

// WithProbes overrides the store's default ANN probe count.
func (s *Service) WithProbes(probes int) *Service {
	s.probes = probes
	return s
}

// WithReranker attaches an external reranker applied to the top topK results.
// A non-positive timeout keeps the default.
func (s *Service) WithReranker(r Reranker, topK int, timeout time.Duration) *Service {
	s.reranker = r
	s.rerankTopK = topK
	if timeout > 0 {
		s.rerankTimeout = timeout
	}
	return s
}

// Search executes a hybrid search. An empty query yields an empty result,
// not an error: "nothing asked, nothing found" stays distinguishable from
// "something failed".
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Result, error) {
	if req.IsEmpty() {
		return nil, nil
	}

	start := time.Now()
	overfetch := req.Limit() * overfetchFactor

	var lexical, semantic []store.Hit
	var err error

	if req.Mode().UsesLexical() && req.Query() != "" {
		lexical, err = s.repo.LexicalQuery(ctx, &store.LexicalQuery{
			Text:      req.Query(),
			MeetingID: req.MeetingID(),
			Limit:     overfetch,
		})
		if err != nil {
			return nil, fmt.Errorf("lexical query: %w", err)
		}
	}

	if req.Mode().UsesSemantic() && len(req.Embedding()) > 0 {
		semantic, err = s.repo.ANNQuery(ctx, &store.ANNQuery{
			Embedding:    req.Embedding(),
			ModelVersion: s.queryModelVersion,
			MeetingID:    req.MeetingID(),
			Limit:        overfetch,
			Probes:       s.probes,
		})
		if err != nil {
			return nil, fmt.Errorf("ann query: %w", err)
		}
	}

	results := fuseWeighted(lexical, semantic, req.Weights(), req.Limit())
	results = s.maybeRerank(ctx, req.Query(), results)

	metrics.SearchDuration.WithLabelValues(string(req.Mode())).Observe(time.Since(start).Seconds())
	metrics.SearchResultsTotal.WithLabelValues(string(req.Mode())).Add(float64(len(results)))
	return results, nil
}

// maybeRerank hands the already-ranked top-K to the external reranker.
// Fail-open: on timeout, error, or a reply that is not a pure permutation,
// the fused order is returned unchanged.
func (s *Service) maybeRerank(ctx context.Context, query string, results []result.Result) []result.Result {
	if s.reranker == nil || len(results) == 0 || query == "" {
		return results
	}

	topK := s.rerankTopK
	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	head, tail := results[:topK], results[topK:]

	rctx, cancel := context.WithTimeout(ctx, s.rerankTimeout)
	defer cancel()

	reranked, err := s.reranker.Rerank(rctx, query, head)
	if err != nil {
		metrics.RerankFallbackTotal.WithLabelValues("error").Inc()
		s.logger.Warn("reranker failed, keeping fused order", zap.Error(err))
		return results
	}
	if !samePermutation(head, reranked) {
		metrics.RerankFallbackTotal.WithLabelValues("invalid").Inc()
		s.logger.Warn("reranker reply is not a permutation, keeping fused order",
			zap.Int("sent", len(head)), zap.Int("received", len(reranked)))
		return results
	}

	metrics.RerankAppliedTotal.Inc()
	return append(reranked, tail...)
}

// samePermutation checks the reranker preserved fragment identities exactly.
func samePermutation(sent, received []result.Result) bool {
	if len(sent) != len(received) {
		return false
	}
	ids := make(map[string]int, len(sent))
	for i := range sent {
		ids[sent[i].FragmentID()]++
	}
	for i := range received {
		ids[received[i].FragmentID()]--
		if ids[received[i].FragmentID()] < 0 {
			return false
		}
	}
	return true
}
