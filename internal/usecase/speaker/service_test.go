package speaker

import (
	"context"
	"errors"
	"testing"

	"github.com/parley-ai/recall/internal/domain"
)

type fakeRepo struct {
	speakers map[string]domain.Speaker
	upserts  int
	listErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{speakers: make(map[string]domain.Speaker)}
}

func (r *fakeRepo) UpsertSpeaker(_ context.Context, sp *domain.Speaker) error {
	r.upserts++
	r.speakers[sp.ID] = *sp
	return nil
}

func (r *fakeRepo) GetSpeaker(_ context.Context, id string) (domain.Speaker, error) {
	sp, ok := r.speakers[id]
	if !ok {
		return domain.Speaker{}, domain.ErrSpeakerNotFound
	}
	return sp, nil
}

func (r *fakeRepo) ListVoiceprints(_ context.Context, ownerID string) ([]domain.Speaker, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []domain.Speaker
	for _, sp := range r.speakers {
		if ownerID != "" && sp.OwnerID != ownerID {
			continue
		}
		if !sp.Registered || len(sp.Voiceprint) == 0 {
			continue
		}
		out = append(out, sp)
	}
	return out, nil
}

func registered(id, owner, name string, vp []float32) domain.Speaker {
	return domain.Speaker{
		ID: id, OwnerID: owner, DisplayName: name,
		Voiceprint: vp, ModelVersion: "voice-v1",
		Registered: true, SampleCount: 1,
	}
}

func TestMatch_EmptyRegisteredSet(t *testing.T) {
	svc := New(newFakeRepo(), nil)

	m, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint:   []float32{1, 0, 0, 0},
		ModelVersion: "voice-v1",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if m.Matched {
		t.Fatal("expected Unmatched against an empty registered set")
	}
}

func TestMatch_AcceptsAboveThreshold(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-ana"] = registered("sp-ana", "owner-1", "Ana", []float32{1, 0, 0, 0})
	repo.speakers["sp-bo"] = registered("sp-bo", "owner-1", "Bo", []float32{0, 0, 1, 0})
	svc := New(repo, nil)

	m, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint:   []float32{0.99, 0.01, 0, 0},
		ModelVersion: "voice-v1",
		OwnerID:      "owner-1",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !m.Matched || m.SpeakerID != "sp-ana" {
		t.Fatalf("Match() = %+v, want sp-ana matched", m)
	}
	if m.DisplayName != "Ana" {
		t.Errorf("DisplayName = %q, want Ana", m.DisplayName)
	}
	if m.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100 for a near-identical voiceprint", m.Confidence)
	}
}

func TestMatch_RejectsOrthogonalVoiceprint(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-ana"] = registered("sp-ana", "owner-1", "Ana", []float32{1, 0, 0, 0})
	svc := New(repo, nil)

	m, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint:   []float32{0, 0, 1, 0},
		ModelVersion: "voice-v1",
		OwnerID:      "owner-1",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if m.Matched {
		t.Fatalf("Match() = %+v, want Unmatched for an orthogonal voiceprint", m)
	}
}

func TestMatch_ThresholdBoundaryIsAccepted(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-ana"] = registered("sp-ana", "", "Ana", []float32{1, 0})
	svc := New(repo, nil)

	// Identical voiceprints give similarity 1.0; a threshold of exactly 1.0
	// must still accept.
	m, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint:   []float32{1, 0},
		ModelVersion: "voice-v1",
		Threshold:    1.0,
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !m.Matched {
		t.Fatal("similarity equal to the threshold must be accepted")
	}
	if m.Confidence != 100 {
		t.Errorf("Confidence = %d, want 100", m.Confidence)
	}
}

func TestMatch_ModelVersionMismatch(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-ana"] = registered("sp-ana", "", "Ana", []float32{1, 0, 0, 0})
	svc := New(repo, nil)

	_, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint:   []float32{1, 0, 0, 0},
		ModelVersion: "voice-v2",
	})
	if !errors.Is(err, domain.ErrModelVersionMismatch) {
		t.Fatalf("Match() error = %v, want ErrModelVersionMismatch", err)
	}
}

func TestMatch_DimensionMismatch(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-ana"] = registered("sp-ana", "", "Ana", []float32{1, 0, 0, 0})
	svc := New(repo, nil)

	_, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint:   []float32{1, 0},
		ModelVersion: "voice-v1",
	})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("Match() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestMatch_RepositoryErrorPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = domain.ErrTransient
	svc := New(repo, nil)

	_, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint: []float32{1, 0},
	})
	if !errors.Is(err, domain.ErrTransient) {
		t.Fatalf("Match() error = %v, want ErrTransient", err)
	}
}

func TestConfidenceFor(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-ana"] = registered("sp-ana", "", "Ana", []float32{1, 0, 0, 0})
	svc := New(repo, nil)

	got, err := svc.ConfidenceFor(context.Background(), "sp-ana", []float32{0, 1, 0, 0}, "voice-v1")
	if err != nil {
		t.Fatalf("ConfidenceFor() error = %v", err)
	}
	if got != 0 {
		t.Errorf("ConfidenceFor() = %d, want 0 for an orthogonal pair", got)
	}

	got, err = svc.ConfidenceFor(context.Background(), "sp-ana", []float32{1, 0, 0, 0}, "voice-v1")
	if err != nil {
		t.Fatalf("ConfidenceFor() error = %v", err)
	}
	if got != 100 {
		t.Errorf("ConfidenceFor() = %d, want 100 for identical voiceprints", got)
	}
}

func TestConfidenceFor_UnregisteredSpeaker(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-new"] = domain.Speaker{ID: "sp-new", Registered: false}
	svc := New(repo, nil)

	_, err := svc.ConfidenceFor(context.Background(), "sp-new", []float32{1, 0}, "voice-v1")
	if !errors.Is(err, domain.ErrSpeakerNotRegistered) {
		t.Fatalf("ConfidenceFor() error = %v, want ErrSpeakerNotRegistered", err)
	}
}

func TestRegister_CreatesAndTransitions(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, nil)

	sp, err := svc.Register(context.Background(), "sp-new", "owner-1", "Ana",
		[]float32{1, 0, 0, 0}, "voice-v1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !sp.Registered || sp.DisplayName != "Ana" {
		t.Fatalf("Register() = %+v, want registered Ana", sp)
	}
	if sp.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", sp.SampleCount)
	}

	// Ana is now matchable.
	m, err := svc.Match(context.Background(), &MatchRequest{
		Voiceprint:   []float32{1, 0, 0, 0},
		ModelVersion: "voice-v1",
		OwnerID:      "owner-1",
	})
	if err != nil {
		t.Fatalf("Match() error = %v", err)
	}
	if !m.Matched || m.SpeakerID != "sp-new" {
		t.Fatalf("Match() after Register = %+v, want sp-new matched", m)
	}
}

func TestRegister_RequiresVoiceprint(t *testing.T) {
	svc := New(newFakeRepo(), nil)

	_, err := svc.Register(context.Background(), "sp-new", "owner-1", "Ana", nil, "")
	if !errors.Is(err, domain.ErrSpeakerNotRegistered) {
		t.Fatalf("Register() error = %v, want ErrSpeakerNotRegistered", err)
	}
}

func TestDisplayName_CacheInvalidatedOnRegister(t *testing.T) {
	repo := newFakeRepo()
	repo.speakers["sp-ana"] = registered("sp-ana", "owner-1", "Ana", []float32{1, 0})
	svc := New(repo, nil)

	name, err := svc.DisplayName(context.Background(), "sp-ana")
	if err != nil {
		t.Fatalf("DisplayName() error = %v", err)
	}
	if name != "Ana" {
		t.Fatalf("DisplayName() = %q, want Ana", name)
	}

	if _, err := svc.Register(context.Background(), "sp-ana", "owner-1", "Ana Marie",
		nil, ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	name, err = svc.DisplayName(context.Background(), "sp-ana")
	if err != nil {
		t.Fatalf("DisplayName() error = %v", err)
	}
	if name != "Ana Marie" {
		t.Errorf("DisplayName() after rename = %q, want Ana Marie", name)
	}
}

func TestDisplayName_UnknownSpeakerResolvesEmpty(t *testing.T) {
	svc := New(newFakeRepo(), nil)

	name, err := svc.DisplayName(context.Background(), "sp-ghost")
	if err != nil {
		t.Fatalf("DisplayName() error = %v", err)
	}
	if name != "" {
		t.Errorf("DisplayName() = %q, want empty for unknown speaker", name)
	}
}
