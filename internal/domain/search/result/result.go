package result

// Result is a single search hit. Scores are computed at query time and never
// persisted; all three are returned for caller transparency.
type Result struct {
	fragmentID    string
	meetingID     string
	sequenceIndex int
	startTime     float64
	endTime       float64
	speakerRef    string
	text          string
	lexicalScore  float64
	semanticScore float64
	combinedScore float64
}

// New creates a search result.
func New(
	fragmentID, meetingID string, sequenceIndex int,
	startTime, endTime float64, speakerRef, text string,
	lexicalScore, semanticScore, combinedScore float64,
) Result {
	return Result{
		fragmentID:    fragmentID,
		meetingID:     meetingID,
		sequenceIndex: sequenceIndex,
		startTime:     startTime,
		endTime:       endTime,
		speakerRef:    speakerRef,
		text:          text,
		lexicalScore:  lexicalScore,
		semanticScore: semanticScore,
		combinedScore: combinedScore,
	}
}

// FragmentID returns the fragment identifier.
func (r *Result) FragmentID() string { return r.fragmentID }

// MeetingID returns the owning meeting identifier.
func (r *Result) MeetingID() string { return r.meetingID }

// SequenceIndex returns the fragment's monotonic position within its meeting.
func (r *Result) SequenceIndex() int { return r.sequenceIndex }

// StartTime returns the fragment start in seconds.
func (r *Result) StartTime() float64 { return r.startTime }

// EndTime returns the fragment end in seconds.
func (r *Result) EndTime() float64 { return r.endTime }

// SpeakerRef returns the resolved speaker reference, empty if unresolved.
func (r *Result) SpeakerRef() string { return r.speakerRef }

// Text returns the fragment text.
func (r *Result) Text() string { return r.text }

// LexicalScore returns the term-overlap relevance score.
func (r *Result) LexicalScore() float64 { return r.lexicalScore }

// SemanticScore returns the cosine-similarity relevance score.
func (r *Result) SemanticScore() float64 { return r.semanticScore }

// CombinedScore returns the weighted fusion of lexical and semantic scores.
func (r *Result) CombinedScore() float64 { return r.combinedScore }

// WithScores returns a copy with the given scores set.
func (r *Result) WithScores(lexical, semantic, combined float64) Result {
	out := *r
	out.lexicalScore = lexical
	out.semanticScore = semantic
	out.combinedScore = combined
	return out
}
