package redis

import (
	"context"
	"strconv"

	"github.com/parley-ai/recall/internal/store"
)

// EnsureIndex creates the fragment FT index if it does not exist. The schema
// carries the lexical TEXT field, the meeting scope TAG, the sortable
// sequence NUMERIC, and the HNSW vector field at the configured dimension.
func (s *Store) EnsureIndex(ctx context.Context) error {
	args := []string{
		s.fragIndex(),
		"ON", "HASH",
		"PREFIX", "1", s.cfg.KeyPrefix + "frag:",
		"SCHEMA",
		"text", "TEXT",
		"meeting_id", "TAG",
		"seq", "NUMERIC", "SORTABLE",
		"vector", "VECTOR", "HNSW", "6",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.cfg.TextDimension),
		"DISTANCE_METRIC", "COSINE",
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return store.Transient("ft.create", err)
	}
	return nil
}
