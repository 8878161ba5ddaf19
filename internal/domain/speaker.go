package domain

import "fmt"

// Speaker is a participant identity. Speakers start unregistered (voiceprint
// present, name absent) or pre-registered (name present, voiceprint absent
// until a sample arrives); registration is an explicit transition performed
// by a human confirming a name.
type Speaker struct {
	ID           string
	OwnerID      string
	DisplayName  string // empty until registered
	Voiceprint   []float32
	ModelVersion string
	Registered   bool
	SampleCount  int
}

// Register confirms the speaker's display name, completing the transition to
// a registered identity. Voiceprint must already be present.
func (s *Speaker) Register(displayName string) error {
	if displayName == "" {
		return fmt.Errorf("%w: display name is required", ErrSpeakerNotRegistered)
	}
	if len(s.Voiceprint) == 0 {
		return fmt.Errorf("%w: voiceprint sample is required", ErrSpeakerNotRegistered)
	}
	s.DisplayName = displayName
	s.Registered = true
	return nil
}

// Validate checks write-time invariants.
func (s *Speaker) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: speaker ID is required", ErrInvalidRange)
	}
	if s.OwnerID == "" {
		return fmt.Errorf("%w: owner ID is required", ErrInvalidRange)
	}
	if len(s.Voiceprint) > 0 && s.ModelVersion == "" {
		return fmt.Errorf("%w: voiceprint requires a model version", ErrInvalidRange)
	}
	return nil
}
