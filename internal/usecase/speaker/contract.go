package speaker

import (
	"context"

	"github.com/parley-ai/recall/internal/domain"
)

// Repository defines the storage contract for speaker identity operations.
type Repository interface {
	UpsertSpeaker(ctx context.Context, s *domain.Speaker) error
	GetSpeaker(ctx context.Context, id string) (domain.Speaker, error)
	ListVoiceprints(ctx context.Context, ownerID string) ([]domain.Speaker, error)
}
