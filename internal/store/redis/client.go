// Package redis implements the Fragment Store on Redis 8+ via rueidis:
// fragments live in hashes behind an FT index with a TEXT field (BM25) and
// an HNSW vector field, speakers in plain hashes scanned linearly.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/parley-ai/recall/internal/store"
)

// Compile-time check: Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Config holds connection and index parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int

	KeyPrefix string // default "recall:"

	TextDimension  int
	VoiceDimension int
	// Model versions are required for the Redis backend: vectors from a
	// different embedding model version are refused at the boundary.
	TextModelVersion  string
	VoiceModelVersion string

	// DefaultProbes maps to HNSW EF_RUNTIME when a query does not override
	// the probe count (default 32).
	DefaultProbes int
}

const defaultEFRuntime = 32

// Store implements store.Store via rueidis.
type Store struct {
	client rueidis.Client
	cfg    Config
}

// NewStore creates a Redis store and prepares the fragment index.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.TextDimension <= 0 || cfg.VoiceDimension <= 0 {
		return nil, fmt.Errorf("vector dimensions are required")
	}
	if cfg.TextModelVersion == "" || cfg.VoiceModelVersion == "" {
		return nil, fmt.Errorf("embedding model versions are required")
	}
	applyDefaults(&cfg)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client, cfg: cfg}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "recall:"
	}
	if cfg.DefaultProbes <= 0 {
		cfg.DefaultProbes = defaultEFRuntime
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return store.Transient(store.OpPing, err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires, then
// bootstraps the fragment FT index so search queries can run.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for store: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return s.EnsureIndex(ctx)
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

func (s *Store) fragKey(id string) string    { return s.cfg.KeyPrefix + "frag:" + id }
func (s *Store) speakerKey(id string) string { return s.cfg.KeyPrefix + "spk:" + id }
func (s *Store) fragIndex() string           { return s.cfg.KeyPrefix + "frag:idx" }

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return containsIgnoreCase(re.Error(), substr)
}

func containsIgnoreCase(s, substr string) bool {
	ls := len(s)
	lsub := len(substr)
	if lsub > ls {
		return false
	}
	for i := 0; i <= ls-lsub; i++ {
		match := true
		for j := 0; j < lsub; j++ {
			sc := s[i+j]
			tc := substr[j]
			if sc >= 'A' && sc <= 'Z' {
				sc += 'a' - 'A'
			}
			if tc >= 'A' && tc <= 'Z' {
				tc += 'a' - 'A'
			}
			if sc != tc {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
