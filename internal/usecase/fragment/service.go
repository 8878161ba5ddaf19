package fragment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parley-ai/recall/internal/domain"
)

// Service handles the fragment lifecycle: transcription emits fragments,
// diarization corrections reassign speakers, playback reads ranges.
type Service struct {
	repo     Repository
	embedder domain.Embedder
	logger   *zap.Logger
}

// New creates a fragment service. embedder may be nil; callers must then
// supply embeddings with every fragment.
func New(repo Repository, embedder domain.Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, embedder: embedder, logger: logger}
}

// Emit persists a transcript fragment. A fragment arriving without an
// embedding is embedded server-side when an embedder is configured; the
// resulting model version is stamped onto the fragment.
func (s *Service) Emit(ctx context.Context, f *domain.Fragment) error {
	if len(f.Embedding) == 0 {
		if s.embedder == nil {
			return fmt.Errorf("%w: embedding is required", domain.ErrInvalidRange)
		}
		res, err := s.embedder.Embed(ctx, f.Text)
		if err != nil {
			return fmt.Errorf("embed fragment text: %w", err)
		}
		f.Embedding = res.Embedding
		f.ModelVersion = res.ModelVersion
	}

	if err := f.Validate(); err != nil {
		return err
	}
	if err := s.repo.UpsertFragment(ctx, f); err != nil {
		return fmt.Errorf("upsert fragment: %w", err)
	}

	s.logger.Debug("fragment stored",
		zap.String("fragment_id", f.ID),
		zap.String("meeting_id", f.MeetingID),
		zap.Int("seq", f.SequenceIndex),
	)
	return nil
}

// Assign corrects a fragment's speaker reference after a diarization fix.
// Indexes are untouched; only the reference changes.
func (s *Service) Assign(ctx context.Context, fragmentID, speakerID string) error {
	if fragmentID == "" || speakerID == "" {
		return fmt.Errorf("%w: fragment ID and speaker ID are required", domain.ErrInvalidRange)
	}
	if err := s.repo.AssignSpeaker(ctx, fragmentID, speakerID); err != nil {
		return fmt.Errorf("assign speaker: %w", err)
	}
	return nil
}

// Get returns a single fragment by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Fragment, error) {
	if id == "" {
		return domain.Fragment{}, fmt.Errorf("%w: fragment ID is required", domain.ErrInvalidRange)
	}
	f, err := s.repo.GetFragment(ctx, id)
	if err != nil {
		return domain.Fragment{}, fmt.Errorf("get fragment: %w", err)
	}
	return f, nil
}

// Range returns a meeting's fragments with sequence index in [fromSeq, toSeq],
// in transcript order. An empty range is a valid, empty answer.
func (s *Service) Range(ctx context.Context, meetingID string, fromSeq, toSeq int) ([]domain.Fragment, error) {
	if meetingID == "" {
		return nil, fmt.Errorf("%w: meeting ID is required", domain.ErrInvalidRange)
	}
	if fromSeq < 0 || toSeq < fromSeq {
		return nil, fmt.Errorf("%w: sequence range [%d, %d]", domain.ErrInvalidRange, fromSeq, toSeq)
	}
	frags, err := s.repo.ListFragmentRange(ctx, meetingID, fromSeq, toSeq)
	if err != nil {
		return nil, fmt.Errorf("list fragment range: %w", err)
	}
	return frags, nil
}
