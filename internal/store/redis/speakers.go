package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/store"
)

// UpsertSpeaker writes a speaker hash.
func (s *Store) UpsertSpeaker(ctx context.Context, sp *domain.Speaker) error {
	if err := sp.Validate(); err != nil {
		return err
	}
	if len(sp.Voiceprint) > 0 {
		if len(sp.Voiceprint) != s.cfg.VoiceDimension {
			return domain.NewDimensionError(len(sp.Voiceprint), s.cfg.VoiceDimension)
		}
		if sp.ModelVersion != s.cfg.VoiceModelVersion {
			return domain.NewVersionError(sp.ModelVersion, s.cfg.VoiceModelVersion)
		}
	}

	cmd := s.b().Hset().Key(s.speakerKey(sp.ID)).FieldValue()
	for k, v := range speakerFields(sp) {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return store.Transient(store.OpUpsertSpeaker, err)
	}
	return nil
}

// GetSpeaker returns a speaker by ID.
func (s *Store) GetSpeaker(ctx context.Context, id string) (domain.Speaker, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(s.speakerKey(id)).Build()).AsStrMap()
	if err != nil {
		return domain.Speaker{}, store.Transient(store.OpGetSpeaker, err)
	}
	if len(m) == 0 {
		return domain.Speaker{}, domain.ErrSpeakerNotFound
	}
	return speakerFromFields(id, m), nil
}

// ListVoiceprints scans the speaker keyspace and returns registered speakers
// with voiceprints. An empty ownerID means all owners. The registered set is
// small, so a SCAN plus pipelined HGETALLs is exact and cheap; no ANN index
// is involved.
func (s *Store) ListVoiceprints(ctx context.Context, ownerID string) ([]domain.Speaker, error) {
	prefix := s.cfg.KeyPrefix + "spk:"

	var keys []string
	var cursor uint64
	for {
		// SCAN page boundary doubles as the cancellation point.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cmd := s.b().Scan().Cursor(cursor).Match(prefix + "*").Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, store.Transient(store.OpListVoiceprints, err)
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Hgetall().Key(key).Build()
	}

	var out []domain.Speaker
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, store.Transient(store.OpListVoiceprints, err)
		}
		sp := speakerFromFields(keys[i][len(prefix):], m)
		if ownerID != "" && sp.OwnerID != ownerID {
			continue
		}
		if sp.Registered && len(sp.Voiceprint) > 0 {
			out = append(out, sp)
		}
	}
	return out, nil
}
