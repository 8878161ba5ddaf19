package store

import "github.com/parley-ai/recall/internal/domain"

// LexicalQuery is the input for inverted-index term search.
type LexicalQuery struct {
	Text      string
	MeetingID string // empty for all meetings
	Limit     int
}

// ANNQuery is the input for approximate vector similarity search.
type ANNQuery struct {
	Embedding    []float32
	ModelVersion string
	MeetingID    string // empty for all meetings
	Limit        int
	// Probes overrides the backend's default probe count when positive.
	// For the in-memory IVF index this is the number of clusters scanned;
	// for Redis HNSW it maps to EF_RUNTIME.
	Probes int
}

// Hit is a single index hit: the fragment plus its relevance score. Lexical
// hits carry a term-frequency/coverage score; ANN hits carry similarity
// (1 - cosine distance).
type Hit struct {
	Fragment domain.Fragment
	Score    float64
}
