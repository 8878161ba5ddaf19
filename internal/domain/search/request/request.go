package request

import (
	"fmt"

	"github.com/parley-ai/recall/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100

	// DefaultLexicalWeight and DefaultSemanticWeight are provisional fusion
	// weights carried over as configuration defaults pending validation
	// against a labeled relevance dataset.
	DefaultLexicalWeight  = 0.3
	DefaultSemanticWeight = 0.7
)

// Weights holds the fusion weights for hybrid search.
type Weights struct {
	Lexical  float64
	Semantic float64
}

// DefaultWeights returns the default fusion weights.
func DefaultWeights() Weights {
	return Weights{Lexical: DefaultLexicalWeight, Semantic: DefaultSemanticWeight}
}

// Request is a validated search query. A request with neither text nor
// embedding is valid and yields an empty result: empty query, empty answer.
type Request struct {
	query      string
	embedding  []float32
	searchMode mode.Mode
	meetingID  string
	limit      int
	weights    Weights
}

// New validates and normalizes search parameters.
// Mode defaults from the signals present: both -> hybrid, text only ->
// lexical, embedding only -> semantic. Limit defaults to 20, capped at 100.
func New(
	query string, embedding []float32,
	m mode.Mode, meetingID string,
	limit int, weights *Weights,
) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m == "" {
		m = inferMode(query, embedding)
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	w := DefaultWeights()
	if weights != nil {
		if weights.Lexical < 0 || weights.Semantic < 0 {
			return Request{}, fmt.Errorf("weights must be non-negative")
		}
		if weights.Lexical == 0 && weights.Semantic == 0 {
			return Request{}, fmt.Errorf("at least one weight must be positive")
		}
		w = *weights
	}

	return Request{
		query:      query,
		embedding:  embedding,
		searchMode: m,
		meetingID:  meetingID,
		limit:      limit,
		weights:    w,
	}, nil
}

func inferMode(query string, embedding []float32) mode.Mode {
	switch {
	case query != "" && len(embedding) > 0:
		return mode.Hybrid
	case len(embedding) > 0:
		return mode.Semantic
	default:
		return mode.Lexical
	}
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Embedding returns the query embedding, nil if absent.
func (r *Request) Embedding() []float32 { return r.embedding }

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// MeetingID returns the meeting scope, empty for all meetings.
func (r *Request) MeetingID() string { return r.meetingID }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Weights returns the fusion weights.
func (r *Request) Weights() Weights { return r.weights }

// IsEmpty reports whether the request carries no usable signal.
func (r *Request) IsEmpty() bool {
	hasText := r.query != "" && r.searchMode.UsesLexical()
	hasVector := len(r.embedding) > 0 && r.searchMode.UsesSemantic()
	return !hasText && !hasVector
}
