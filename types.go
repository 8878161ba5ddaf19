package recall

import (
	"context"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/domain/search/result"
)

// Fragment is a transcript segment with its text embedding.
type Fragment struct {
	ID            string
	MeetingID     string
	SequenceIndex int
	StartTime     float64 // seconds from meeting start
	EndTime       float64
	SpeakerRef    string // empty while the speaker is unresolved
	Text          string
	Embedding     []float32
	ModelVersion  string
}

// Speaker is a participant identity with a voiceprint.
type Speaker struct {
	ID           string
	OwnerID      string
	DisplayName  string
	Voiceprint   []float32
	ModelVersion string
	Registered   bool
	SampleCount  int
}

// SearchMode selects which indexes answer a query.
type SearchMode string

// Search modes.
const (
	ModeHybrid   SearchMode = "hybrid"
	ModeLexical  SearchMode = "lexical"
	ModeSemantic SearchMode = "semantic"
)

// SearchOptions configures a search query. The zero value searches all
// meetings in hybrid mode with default weights and limit.
type SearchOptions struct {
	Embedding      []float32
	Mode           SearchMode
	MeetingID      string
	Limit          int
	LexicalWeight  float64
	SemanticWeight float64
}

// SearchResult is a single ranked fragment.
type SearchResult struct {
	FragmentID    string
	MeetingID     string
	SequenceIndex int
	StartTime     float64
	EndTime       float64
	SpeakerRef    string
	Text          string
	LexicalScore  float64
	SemanticScore float64
	CombinedScore float64
}

// Match is the outcome of a voiceprint comparison. Confidence is 0-100.
type Match struct {
	Matched     bool
	SpeakerID   string
	DisplayName string
	Confidence  int
}

// MatchOptions tunes a speaker match. The zero value uses the client's
// configured threshold across all owners.
type MatchOptions struct {
	OwnerID   string
	Threshold float64
}

// Embedder vectorizes text. Implementations typically call an external
// model provider.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries an embedding vector, the producing model version,
// and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	ModelVersion string
	TotalTokens  int
}

func fragmentToDomain(f Fragment) domain.Fragment {
	return domain.Fragment{
		ID:            f.ID,
		MeetingID:     f.MeetingID,
		SequenceIndex: f.SequenceIndex,
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		SpeakerRef:    f.SpeakerRef,
		Text:          f.Text,
		Embedding:     f.Embedding,
		ModelVersion:  f.ModelVersion,
	}
}

func fragmentFromDomain(f domain.Fragment) Fragment {
	return Fragment{
		ID:            f.ID,
		MeetingID:     f.MeetingID,
		SequenceIndex: f.SequenceIndex,
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		SpeakerRef:    f.SpeakerRef,
		Text:          f.Text,
		Embedding:     f.Embedding,
		ModelVersion:  f.ModelVersion,
	}
}

func speakerFromDomain(s domain.Speaker) Speaker {
	return Speaker{
		ID:           s.ID,
		OwnerID:      s.OwnerID,
		DisplayName:  s.DisplayName,
		Voiceprint:   s.Voiceprint,
		ModelVersion: s.ModelVersion,
		Registered:   s.Registered,
		SampleCount:  s.SampleCount,
	}
}

func fromSearchResults(results []result.Result) []SearchResult {
	out := make([]SearchResult, len(results))
	for i := range results {
		r := &results[i]
		out[i] = SearchResult{
			FragmentID:    r.FragmentID(),
			MeetingID:     r.MeetingID(),
			SequenceIndex: r.SequenceIndex(),
			StartTime:     r.StartTime(),
			EndTime:       r.EndTime(),
			SpeakerRef:    r.SpeakerRef(),
			Text:          r.Text(),
			LexicalScore:  r.LexicalScore(),
			SemanticScore: r.SemanticScore(),
			CombinedScore: r.CombinedScore(),
		}
	}
	return out
}
