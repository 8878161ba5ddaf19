package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/store"
)

// UpsertFragment writes a fragment hash. The FT index follows the hash
// write, so the fragment is queryable once the call returns.
func (s *Store) UpsertFragment(ctx context.Context, f *domain.Fragment) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if len(f.Embedding) != s.cfg.TextDimension {
		return domain.NewDimensionError(len(f.Embedding), s.cfg.TextDimension)
	}
	if f.ModelVersion != s.cfg.TextModelVersion {
		return domain.NewVersionError(f.ModelVersion, s.cfg.TextModelVersion)
	}

	cmd := s.b().Hset().Key(s.fragKey(f.ID)).FieldValue()
	for k, v := range fragmentFields(f) {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return store.Transient(store.OpUpsertFragment, err)
	}
	return nil
}

// AssignSpeaker rewrites just the speaker_ref field.
func (s *Store) AssignSpeaker(ctx context.Context, fragmentID, speakerID string) error {
	key := s.fragKey(fragmentID)

	count, err := s.do(ctx, s.b().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return store.Transient(store.OpAssignSpeaker, err)
	}
	if count == 0 {
		return domain.ErrFragmentNotFound
	}

	cmd := s.b().Hset().Key(key).FieldValue().FieldValue(fieldSpeakerRef, speakerID).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return store.Transient(store.OpAssignSpeaker, err)
	}
	return nil
}

// GetFragment returns a fragment by ID.
func (s *Store) GetFragment(ctx context.Context, id string) (domain.Fragment, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(s.fragKey(id)).Build()).AsStrMap()
	if err != nil {
		return domain.Fragment{}, store.Transient(store.OpGetFragment, err)
	}
	if len(m) == 0 {
		return domain.Fragment{}, domain.ErrFragmentNotFound
	}
	return fragmentFromFields(id, m)
}

// ListFragmentRange returns a meeting's fragments with sequence index in
// [fromSeq, toSeq] via a numeric-filtered FT.SEARCH, sorted by sequence.
func (s *Store) ListFragmentRange(
	ctx context.Context, meetingID string, fromSeq, toSeq int,
) ([]domain.Fragment, error) {
	query := fmt.Sprintf("@%s:{%s} @%s:[%d %d]",
		fieldMeetingID, tagEscaper.Replace(meetingID), fieldSeq, fromSeq, toSeq)

	args := []string{
		s.fragIndex(), query,
		"SORTBY", fieldSeq, "ASC",
		"LIMIT", "0", strconv.Itoa(toSeq - fromSeq + 1),
		"DIALECT", "2",
	}

	raw, err := s.do(ctx, s.b().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, store.Transient(store.OpListRange, err)
	}

	entries, err := parseSearchEntries(raw, 2)
	if err != nil {
		return nil, fmt.Errorf("parse range result: %w", err)
	}

	frags := make([]domain.Fragment, 0, len(entries))
	for _, e := range entries {
		f, err := fragmentFromFields(s.fragIDFromKey(e.key), e.fields)
		if err != nil {
			continue
		}
		frags = append(frags, f)
	}
	sort.Slice(frags, func(i, j int) bool { return frags[i].SequenceIndex < frags[j].SequenceIndex })
	return frags, nil
}

func (s *Store) fragIDFromKey(key string) string {
	prefix := s.cfg.KeyPrefix + "frag:"
	if len(key) > len(prefix) {
		return key[len(prefix):]
	}
	return key
}
