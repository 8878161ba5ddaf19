package domain

import "fmt"

// Fragment is a timestamped, speaker-attributed slice of transcript text
// with its embedding. Immutable once written except for SpeakerRef, which
// may be corrected retroactively without re-indexing.
type Fragment struct {
	ID            string
	MeetingID     string
	SequenceIndex int
	StartTime     float64 // seconds
	EndTime       float64 // seconds
	SpeakerRef    string  // empty until resolved
	Text          string
	Embedding     []float32
	ModelVersion  string
}

// Validate checks the write-time invariants that do not depend on store
// configuration. Dimension and model version checks belong to the store.
func (f *Fragment) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: fragment ID is required", ErrInvalidRange)
	}
	if f.MeetingID == "" {
		return fmt.Errorf("%w: meeting ID is required", ErrInvalidRange)
	}
	if f.SequenceIndex < 0 {
		return fmt.Errorf("%w: sequence index must be non-negative", ErrInvalidRange)
	}
	if f.EndTime <= f.StartTime {
		return fmt.Errorf("%w: end_time %.3f must be after start_time %.3f",
			ErrInvalidRange, f.EndTime, f.StartTime)
	}
	if f.Text == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidRange)
	}
	if len(f.Embedding) == 0 {
		return fmt.Errorf("%w: embedding is required", ErrInvalidRange)
	}
	if f.ModelVersion == "" {
		return fmt.Errorf("%w: embedding model version is required", ErrInvalidRange)
	}
	return nil
}
