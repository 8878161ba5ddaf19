// Package store defines the Fragment Store contract: durable transcript
// fragments and speaker voiceprints behind an inverted lexical index and a
// partitioned ANN index. Callers depend only on these interfaces, never on
// backend-specific types.
package store

import (
	"context"
	"time"

	"github.com/parley-ai/recall/internal/domain"
)

// Store is the full Fragment Store facade combining all sub-interfaces.
// Consumers use the narrow sub-interfaces (ISP).
type Store interface {
	Pinger
	FragmentWriter
	FragmentReader
	LexicalSearcher
	ANNSearcher
	SpeakerStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FragmentWriter accepts fragment writes. Writes are durable before the call
// returns and visible to subsequent queries (read-after-write).
type FragmentWriter interface {
	// UpsertFragment inserts a fragment and updates both indexes. Idempotent
	// on fragment ID: re-upserting replaces content and re-indexes.
	UpsertFragment(ctx context.Context, f *domain.Fragment) error
	// AssignSpeaker corrects a fragment's speaker reference retroactively.
	// The embedding and indexes are untouched.
	AssignSpeaker(ctx context.Context, fragmentID, speakerID string) error
}

// FragmentReader reads fragments outside of similarity queries.
type FragmentReader interface {
	GetFragment(ctx context.Context, id string) (domain.Fragment, error)
	// ListFragmentRange returns fragments of a meeting with sequence index in
	// [fromSeq, toSeq], ordered by ascending sequence index.
	ListFragmentRange(ctx context.Context, meetingID string, fromSeq, toSeq int) ([]domain.Fragment, error)
}

// LexicalSearcher answers term-overlap queries against the inverted index.
type LexicalSearcher interface {
	LexicalQuery(ctx context.Context, q *LexicalQuery) ([]Hit, error)
}

// ANNSearcher answers approximate nearest-neighbor queries. The index
// partitions vector space into clusters and probes a configurable subset;
// more probes raise recall and latency.
type ANNSearcher interface {
	ANNQuery(ctx context.Context, q *ANNQuery) ([]Hit, error)
}

// SpeakerStore holds speaker identities and voiceprints. The registered set
// is small enough for exact linear comparison, so no ANN index is kept.
type SpeakerStore interface {
	UpsertSpeaker(ctx context.Context, s *domain.Speaker) error
	GetSpeaker(ctx context.Context, id string) (domain.Speaker, error)
	// ListVoiceprints returns all registered speakers with voiceprints for
	// the given owner scope. An empty ownerID spans all owners.
	ListVoiceprints(ctx context.Context, ownerID string) ([]domain.Speaker, error)
}
