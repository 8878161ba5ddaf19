package speaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/metrics"
)

// DefaultThreshold is the minimum similarity to accept a match. Provisional
// until validated against a labeled identity dataset.
const DefaultThreshold = 0.85

// Match is the outcome of a voiceprint comparison. Confidence is 0-100.
type Match struct {
	Matched     bool
	SpeakerID   string
	DisplayName string
	Confidence  int
}

// Unmatched is the no-match outcome.
var Unmatched = Match{}

// MatchRequest is a voiceprint resolution request. Threshold 0 uses the
// service default; an empty OwnerID scans all owners.
type MatchRequest struct {
	Voiceprint   []float32
	ModelVersion string
	OwnerID      string
	Threshold    float64
}

// Service resolves voiceprints against registered speakers by exact linear
// comparison, and manages speaker registration. A read-through display-name
// cache is invalidated on every speaker write.
type Service struct {
	repo      Repository
	threshold float64
	logger    *zap.Logger

	mu    sync.RWMutex
	names map[string]string
}

// New creates a speaker service.
func New(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		threshold: DefaultThreshold,
		logger:    logger,
		names:     make(map[string]string),
	}
}

// WithThreshold overrides the default confidence threshold.
func (s *Service) WithThreshold(t float64) *Service {
	if t > 0 && t <= 1 {
		s.threshold = t
	}
	return s
}

// Match compares a new voiceprint against every registered voiceprint in the
// owner scope and returns the best candidate when its similarity reaches the
// threshold. A similarity exactly at the threshold is accepted. An empty
// registered set is Unmatched, not an error. A model version mismatch among
// candidates is a data-integrity error.
func (s *Service) Match(ctx context.Context, req *MatchRequest) (Match, error) {
	if len(req.Voiceprint) == 0 {
		return Unmatched, fmt.Errorf("%w: voiceprint is required", domain.ErrInvalidRange)
	}

	start := time.Now()

	candidates, err := s.repo.ListVoiceprints(ctx, req.OwnerID)
	if err != nil {
		return Unmatched, fmt.Errorf("list voiceprints: %w", err)
	}
	if len(candidates) == 0 {
		metrics.MatchTotal.WithLabelValues("unmatched").Inc()
		return Unmatched, nil
	}

	threshold := req.Threshold
	if threshold <= 0 {
		threshold = s.threshold
	}

	var best domain.Speaker
	bestSim := -2.0
	for i := range candidates {
		// Cancellation is honored per candidate: the registered set is
		// small, but an interactive caller may abandon the request.
		if err := ctx.Err(); err != nil {
			return Unmatched, err
		}
		if req.ModelVersion != "" && candidates[i].ModelVersion != req.ModelVersion {
			return Unmatched, domain.NewVersionError(req.ModelVersion, candidates[i].ModelVersion)
		}
		sim, err := domain.CosineSimilarity(req.Voiceprint, candidates[i].Voiceprint)
		if err != nil {
			return Unmatched, fmt.Errorf("compare against %s: %w", candidates[i].ID, err)
		}
		if sim > bestSim {
			bestSim = sim
			best = candidates[i]
		}
	}

	metrics.MatchDuration.Observe(time.Since(start).Seconds())

	if domain.ClampSimilarity(bestSim) >= threshold {
		metrics.MatchTotal.WithLabelValues("matched").Inc()
		return Match{
			Matched:     true,
			SpeakerID:   best.ID,
			DisplayName: best.DisplayName,
			Confidence:  domain.ConfidencePercent(bestSim),
		}, nil
	}
	metrics.MatchTotal.WithLabelValues("unmatched").Inc()
	return Unmatched, nil
}

// ConfidenceFor returns a single pair's confidence without scanning all
// candidates, for a user explicitly checking a chosen speaker.
func (s *Service) ConfidenceFor(
	ctx context.Context, speakerID string, voiceprint []float32, modelVersion string,
) (int, error) {
	sp, err := s.repo.GetSpeaker(ctx, speakerID)
	if err != nil {
		return 0, fmt.Errorf("get speaker: %w", err)
	}
	if len(sp.Voiceprint) == 0 {
		return 0, fmt.Errorf("%w: speaker %s has no voiceprint", domain.ErrSpeakerNotRegistered, speakerID)
	}
	if modelVersion != "" && sp.ModelVersion != modelVersion {
		return 0, domain.NewVersionError(modelVersion, sp.ModelVersion)
	}

	sim, err := domain.CosineSimilarity(voiceprint, sp.Voiceprint)
	if err != nil {
		return 0, err
	}
	return domain.ConfidencePercent(sim), nil
}

// Register confirms a speaker's display name, creating the speaker when it
// does not exist yet. No past fragment is re-scored.
func (s *Service) Register(
	ctx context.Context, speakerID, ownerID, displayName string,
	voiceprint []float32, modelVersion string,
) (domain.Speaker, error) {
	sp, err := s.repo.GetSpeaker(ctx, speakerID)
	switch {
	case err == nil:
		// existing speaker, possibly pre-registered without a voiceprint
	case isNotFound(err):
		sp = domain.Speaker{ID: speakerID, OwnerID: ownerID}
	default:
		return domain.Speaker{}, fmt.Errorf("get speaker: %w", err)
	}

	if len(voiceprint) > 0 {
		sp.Voiceprint = voiceprint
		sp.ModelVersion = modelVersion
		sp.SampleCount++
	}
	if err := sp.Register(displayName); err != nil {
		return domain.Speaker{}, err
	}
	if err := s.repo.UpsertSpeaker(ctx, &sp); err != nil {
		return domain.Speaker{}, fmt.Errorf("upsert speaker: %w", err)
	}

	s.invalidateName(speakerID)
	s.logger.Info("speaker registered",
		zap.String("speaker_id", speakerID),
		zap.Int("sample_count", sp.SampleCount),
	)
	return sp, nil
}

// DisplayName resolves a speaker reference to a display name through the
// cache. Unknown or unregistered speakers resolve to "".
func (s *Service) DisplayName(ctx context.Context, speakerID string) (string, error) {
	if speakerID == "" {
		return "", nil
	}

	s.mu.RLock()
	name, ok := s.names[speakerID]
	s.mu.RUnlock()
	if ok {
		return name, nil
	}

	sp, err := s.repo.GetSpeaker(ctx, speakerID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("get speaker: %w", err)
	}

	s.mu.Lock()
	s.names[speakerID] = sp.DisplayName
	s.mu.Unlock()
	return sp.DisplayName, nil
}

func (s *Service) invalidateName(speakerID string) {
	s.mu.Lock()
	delete(s.names, speakerID)
	s.mu.Unlock()
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrSpeakerNotFound)
}
