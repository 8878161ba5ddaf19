package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/parley-ai/recall/internal/domain"
)

// Op constants name store operations for error context.
const (
	OpUpsertFragment  = "upsert_fragment"
	OpAssignSpeaker   = "assign_speaker"
	OpGetFragment     = "get_fragment"
	OpListRange       = "list_fragment_range"
	OpLexicalQuery    = "lexical_query"
	OpANNQuery        = "ann_query"
	OpUpsertSpeaker   = "upsert_speaker"
	OpGetSpeaker      = "get_speaker"
	OpListVoiceprints = "list_voiceprints"
	OpPing            = "ping"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Transient wraps err as a recoverable store failure tagged with op. Context
// cancellation is passed through untouched so callers can tell a cancelled
// query apart from an unreachable store.
func Transient(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &Error{Op: op, Err: fmt.Errorf("%w: %w", domain.ErrTransient, err)}
}
