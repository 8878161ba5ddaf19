// Package memory implements the Fragment Store with in-process indexes: an
// inverted lexical index and an IVF (cluster/probe) ANN index. It is the
// default backend for in-process library use; durability beyond the process
// lifetime requires the redis backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Config holds the memory store settings. Dimensions and model versions,
// when left zero, are pinned by the first write.
type Config struct {
	TextDimension  int
	VoiceDimension int

	TextModelVersion  string
	VoiceModelVersion string

	// Clusters is the number of IVF partitions (default 16).
	Clusters int
	// DefaultProbes is the number of partitions scanned per ANN query when
	// the query does not override it (default 4).
	DefaultProbes int
}

const (
	defaultClusters = 16
	defaultProbes   = 4
)

// Store is the in-memory Fragment Store.
type Store struct {
	mu sync.RWMutex

	cfg Config

	fragments map[string]domain.Fragment
	speakers  map[string]domain.Speaker

	lexical *invertedIndex
	ann     *ivfIndex

	textVersion  string
	voiceVersion string

	closed bool
}

// NewStore creates a memory store.
func NewStore(cfg Config) *Store {
	if cfg.Clusters <= 0 {
		cfg.Clusters = defaultClusters
	}
	if cfg.DefaultProbes <= 0 {
		cfg.DefaultProbes = defaultProbes
	}
	return &Store{
		cfg:          cfg,
		fragments:    make(map[string]domain.Fragment),
		speakers:     make(map[string]domain.Speaker),
		lexical:      newInvertedIndex(),
		ann:          newIVFIndex(cfg.Clusters),
		textVersion:  cfg.TextModelVersion,
		voiceVersion: cfg.VoiceModelVersion,
	}
}

// Ping reports store availability.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.Transient(store.OpPing, errClosed)
	}
	return nil
}

// Close releases the store. Subsequent calls fail transiently.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// WaitForReady is immediate for the in-memory backend.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// UpsertFragment validates, inserts, and re-indexes a fragment.
func (s *Store) UpsertFragment(_ context.Context, f *domain.Fragment) error {
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Transient(store.OpUpsertFragment, errClosed)
	}

	if s.cfg.TextDimension == 0 {
		s.cfg.TextDimension = len(f.Embedding)
	} else if len(f.Embedding) != s.cfg.TextDimension {
		return domain.NewDimensionError(len(f.Embedding), s.cfg.TextDimension)
	}

	if s.textVersion == "" {
		s.textVersion = f.ModelVersion
	} else if f.ModelVersion != s.textVersion {
		return domain.NewVersionError(f.ModelVersion, s.textVersion)
	}

	if old, ok := s.fragments[f.ID]; ok {
		s.lexical.remove(f.ID, old.Text)
		s.ann.remove(f.ID)
	}

	frag := *f
	frag.Embedding = append([]float32(nil), f.Embedding...)
	s.fragments[f.ID] = frag
	s.lexical.add(f.ID, frag.Text)
	s.ann.add(f.ID, frag.Embedding)
	return nil
}

// AssignSpeaker corrects a fragment's speaker reference. Indexes untouched.
func (s *Store) AssignSpeaker(_ context.Context, fragmentID, speakerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Transient(store.OpAssignSpeaker, errClosed)
	}

	f, ok := s.fragments[fragmentID]
	if !ok {
		return domain.ErrFragmentNotFound
	}
	f.SpeakerRef = speakerID
	s.fragments[fragmentID] = f
	return nil
}

// GetFragment returns a fragment by ID.
func (s *Store) GetFragment(_ context.Context, id string) (domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.Fragment{}, store.Transient(store.OpGetFragment, errClosed)
	}

	f, ok := s.fragments[id]
	if !ok {
		return domain.Fragment{}, domain.ErrFragmentNotFound
	}
	return f, nil
}

// ListFragmentRange returns a meeting's fragments with sequence index in
// [fromSeq, toSeq], ordered by ascending sequence index.
func (s *Store) ListFragmentRange(
	_ context.Context, meetingID string, fromSeq, toSeq int,
) ([]domain.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.Transient(store.OpListRange, errClosed)
	}

	var out []domain.Fragment
	for _, f := range s.fragments {
		if f.MeetingID == meetingID && f.SequenceIndex >= fromSeq && f.SequenceIndex <= toSeq {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SequenceIndex < out[j].SequenceIndex
	})
	return out, nil
}

// UpsertSpeaker inserts or replaces a speaker.
func (s *Store) UpsertSpeaker(_ context.Context, sp *domain.Speaker) error {
	if err := sp.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Transient(store.OpUpsertSpeaker, errClosed)
	}

	if len(sp.Voiceprint) > 0 {
		if s.cfg.VoiceDimension == 0 {
			s.cfg.VoiceDimension = len(sp.Voiceprint)
		} else if len(sp.Voiceprint) != s.cfg.VoiceDimension {
			return domain.NewDimensionError(len(sp.Voiceprint), s.cfg.VoiceDimension)
		}
		if s.voiceVersion == "" {
			s.voiceVersion = sp.ModelVersion
		} else if sp.ModelVersion != s.voiceVersion {
			return domain.NewVersionError(sp.ModelVersion, s.voiceVersion)
		}
	}

	cp := *sp
	cp.Voiceprint = append([]float32(nil), sp.Voiceprint...)
	s.speakers[sp.ID] = cp
	return nil
}

// GetSpeaker returns a speaker by ID.
func (s *Store) GetSpeaker(_ context.Context, id string) (domain.Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.Speaker{}, store.Transient(store.OpGetSpeaker, errClosed)
	}

	sp, ok := s.speakers[id]
	if !ok {
		return domain.Speaker{}, domain.ErrSpeakerNotFound
	}
	return sp, nil
}

// ListVoiceprints returns registered speakers with voiceprints, sorted by ID
// for deterministic iteration. An empty ownerID means all owners.
func (s *Store) ListVoiceprints(_ context.Context, ownerID string) ([]domain.Speaker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.Transient(store.OpListVoiceprints, errClosed)
	}

	var out []domain.Speaker
	for _, sp := range s.speakers {
		if ownerID != "" && sp.OwnerID != ownerID {
			continue
		}
		if sp.Registered && len(sp.Voiceprint) > 0 {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
