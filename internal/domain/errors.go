package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch signals an embedding or voiceprint whose length
	// differs from the store's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrModelVersionMismatch signals an attempt to compare vectors produced
	// by different embedding model versions. This is a data-integrity error,
	// never a low-similarity result.
	ErrModelVersionMismatch = errors.New("embedding model version mismatch")
	// ErrInvalidRange signals an invalid fragment time range or empty text.
	ErrInvalidRange = errors.New("invalid fragment range")
	// ErrTransient signals that the underlying store was unreachable or timed
	// out. Recoverable; retry policy belongs to the caller.
	ErrTransient = errors.New("store transiently unavailable")

	// ErrProviderError signals a failure talking to an external model
	// provider (embedding or reranking).
	ErrProviderError = errors.New("model provider error")

	// ErrFragmentNotFound signals a missing fragment.
	ErrFragmentNotFound = errors.New("fragment not found")
	// ErrSpeakerNotFound signals a missing speaker.
	ErrSpeakerNotFound = errors.New("speaker not found")
	// ErrSpeakerNotRegistered signals a speaker without a confirmed name and voiceprint.
	ErrSpeakerNotRegistered = errors.New("speaker not registered")
)

// DimensionError wraps ErrDimensionMismatch with the observed and expected lengths.
type DimensionError struct {
	Got  int
	Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionError creates a dimension mismatch error.
func NewDimensionError(got, want int) error {
	return &DimensionError{Got: got, Want: want}
}

// VersionError wraps ErrModelVersionMismatch with the two model versions involved.
type VersionError struct {
	Got  string
	Want string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("%s: got %q, want %q", ErrModelVersionMismatch.Error(), e.Got, e.Want)
}

func (e *VersionError) Unwrap() error { return ErrModelVersionMismatch }

// NewVersionError creates a model version mismatch error.
func NewVersionError(got, want string) error {
	return &VersionError{Got: got, Want: want}
}
