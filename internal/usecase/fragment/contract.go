package fragment

import (
	"context"

	"github.com/parley-ai/recall/internal/domain"
)

// Repository defines the storage contract for fragment lifecycle operations.
type Repository interface {
	UpsertFragment(ctx context.Context, f *domain.Fragment) error
	AssignSpeaker(ctx context.Context, fragmentID, speakerID string) error
	GetFragment(ctx context.Context, id string) (domain.Fragment, error)
	ListFragmentRange(ctx context.Context, meetingID string, fromSeq, toSeq int) ([]domain.Fragment, error)
}
