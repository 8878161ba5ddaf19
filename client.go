package recall

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parley-ai/recall/internal/domain"
	"github.com/parley-ai/recall/internal/domain/search/mode"
	"github.com/parley-ai/recall/internal/domain/search/request"
	"github.com/parley-ai/recall/internal/store"
	storeMemory "github.com/parley-ai/recall/internal/store/memory"
	storeRedis "github.com/parley-ai/recall/internal/store/redis"
	fragmentuc "github.com/parley-ai/recall/internal/usecase/fragment"
	searchuc "github.com/parley-ai/recall/internal/usecase/search"
	speakeruc "github.com/parley-ai/recall/internal/usecase/speaker"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the recall SDK entry point.
type Client struct {
	store       store.Store
	fragmentSvc *fragmentuc.Service
	searchSvc   *searchuc.Service
	speakerSvc  *speakeruc.Service

	embedder domain.Embedder
	weights  *request.Weights
}

// New creates a recall Client. Without options it runs against the
// in-process memory store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{driver: "memory"}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	st, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := st.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		st.Close()
		return nil, fmt.Errorf("recall: store not ready: %w", err)
	}

	return wireClient(st, cfg), nil
}

func createStore(cfg *clientConfig) (store.Store, error) {
	switch cfg.driver {
	case "memory":
		return storeMemory.NewStore(storeMemory.Config{
			TextDimension:     cfg.textDimension,
			VoiceDimension:    cfg.voiceDimension,
			TextModelVersion:  cfg.textModelVersion,
			VoiceModelVersion: cfg.voiceModelVersion,
			Clusters:          cfg.clusters,
			DefaultProbes:     cfg.probes,
		}), nil
	case "redis":
		s, err := storeRedis.NewStore(storeRedis.Config{
			Addrs:             cfg.addrs,
			Username:          cfg.username,
			Password:          cfg.password,
			DB:                cfg.db,
			KeyPrefix:         cfg.keyPrefix,
			TextDimension:     cfg.textDimension,
			VoiceDimension:    cfg.voiceDimension,
			TextModelVersion:  cfg.textModelVersion,
			VoiceModelVersion: cfg.voiceModelVersion,
			DefaultProbes:     cfg.probes,
		})
		if err != nil {
			return nil, fmt.Errorf("recall: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("recall: unknown driver %q", cfg.driver)
	}
}

func wireClient(st store.Store, cfg *clientConfig) *Client {
	var domEmb domain.Embedder
	if cfg.embedder != nil {
		domEmb = &embedderAdapter{inner: cfg.embedder}
	}

	fragmentSvc := fragmentuc.New(st, domEmb, cfg.logger)

	searchSvc := searchuc.New(st, cfg.textModelVersion, cfg.logger)
	if cfg.probes > 0 {
		searchSvc = searchSvc.WithProbes(cfg.probes)
	}

	speakerSvc := speakeruc.New(st, cfg.logger)
	if cfg.matchThreshold > 0 {
		speakerSvc = speakerSvc.WithThreshold(cfg.matchThreshold)
	}

	var weights *request.Weights
	if cfg.lexicalWeight > 0 || cfg.semanticWeight > 0 {
		weights = &request.Weights{
			Lexical:  cfg.lexicalWeight,
			Semantic: cfg.semanticWeight,
		}
	}

	return &Client{
		store:       st,
		fragmentSvc: fragmentSvc,
		searchSvc:   searchSvc,
		speakerSvc:  speakerSvc,
		embedder:    domEmb,
		weights:     weights,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EmitFragment writes a transcript fragment and indexes it for search. When
// the fragment carries no embedding and an embedder is configured, the text
// is embedded transparently. Re-emitting the same fragment ID replaces the
// previous content.
func (c *Client) EmitFragment(ctx context.Context, f Fragment) error {
	df := fragmentToDomain(f)
	return c.fragmentSvc.Emit(ctx, &df)
}

// AssignSpeaker corrects a fragment's speaker reference retroactively. The
// fragment's embedding and index entries are untouched.
func (c *Client) AssignSpeaker(ctx context.Context, fragmentID, speakerID string) error {
	return c.fragmentSvc.Assign(ctx, fragmentID, speakerID)
}

// GetFragment returns a fragment by ID.
func (c *Client) GetFragment(ctx context.Context, id string) (Fragment, error) {
	df, err := c.fragmentSvc.Get(ctx, id)
	if err != nil {
		return Fragment{}, err
	}
	return fragmentFromDomain(df), nil
}

// FragmentRange returns the fragments of a meeting with sequence index in
// [fromSeq, toSeq], ordered by ascending sequence index.
func (c *Client) FragmentRange(ctx context.Context, meetingID string, fromSeq, toSeq int) ([]Fragment, error) {
	dfs, err := c.fragmentSvc.Range(ctx, meetingID, fromSeq, toSeq)
	if err != nil {
		return nil, err
	}
	out := make([]Fragment, len(dfs))
	for i, df := range dfs {
		out[i] = fragmentFromDomain(df)
	}
	return out, nil
}

// Search runs a retrieval query. A nil opts searches all meetings in the
// mode inferred from the signals present: text plus embedding is hybrid,
// text alone lexical, embedding alone semantic. An empty query returns an
// empty result, never an error.
func (c *Client) Search(ctx context.Context, query string, opts *SearchOptions) ([]SearchResult, error) {
	var o SearchOptions
	if opts != nil {
		o = *opts
	}

	// Text-only queries against an embedder-equipped client still run
	// hybrid, unless the caller pinned a lexical-only mode.
	if o.Embedding == nil && query != "" && c.embedder != nil {
		if emb := c.searchEmbedding(ctx, query, o.Mode); emb != nil {
			o.Embedding = emb
		}
	}

	weights := c.weights
	if o.LexicalWeight > 0 || o.SemanticWeight > 0 {
		weights = &request.Weights{Lexical: o.LexicalWeight, Semantic: o.SemanticWeight}
	}

	req, err := request.New(query, o.Embedding, mode.Mode(o.Mode), o.MeetingID, o.Limit, weights)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRange, err)
	}

	results, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, err
	}
	return fromSearchResults(results), nil
}

func (c *Client) searchEmbedding(ctx context.Context, query string, m SearchMode) []float32 {
	if m != "" && !mode.Mode(m).UsesSemantic() {
		return nil
	}
	res, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil
	}
	return res.Embedding
}

// MatchSpeaker resolves a voiceprint against the registered speakers. A nil
// opts uses the client's configured threshold across all owners. A below-
// threshold best candidate yields Matched false with no error.
func (c *Client) MatchSpeaker(ctx context.Context, voiceprint []float32, modelVersion string, opts *MatchOptions) (Match, error) {
	var o MatchOptions
	if opts != nil {
		o = *opts
	}
	m, err := c.speakerSvc.Match(ctx, &speakeruc.MatchRequest{
		Voiceprint:   voiceprint,
		ModelVersion: modelVersion,
		OwnerID:      o.OwnerID,
		Threshold:    o.Threshold,
	})
	if err != nil {
		return Match{}, err
	}
	return Match{
		Matched:     m.Matched,
		SpeakerID:   m.SpeakerID,
		DisplayName: m.DisplayName,
		Confidence:  m.Confidence,
	}, nil
}

// ConfidenceFor returns the confidence (0-100) between a voiceprint and one
// chosen speaker, without scanning the full registered set.
func (c *Client) ConfidenceFor(ctx context.Context, speakerID string, voiceprint []float32, modelVersion string) (int, error) {
	return c.speakerSvc.ConfidenceFor(ctx, speakerID, voiceprint, modelVersion)
}

// RegisterSpeaker confirms a speaker's display name, creating the speaker
// when it does not exist yet. The voiceprint, when present, is stored as a
// new sample.
func (c *Client) RegisterSpeaker(ctx context.Context, speakerID, ownerID, displayName string, voiceprint []float32, modelVersion string) (Speaker, error) {
	sp, err := c.speakerSvc.Register(ctx, speakerID, ownerID, displayName, voiceprint, modelVersion)
	if err != nil {
		return Speaker{}, err
	}
	return speakerFromDomain(sp), nil
}

// SpeakerDisplayName resolves a speaker reference to a display name.
// Unknown or unregistered speakers resolve to "".
func (c *Client) SpeakerDisplayName(ctx context.Context, speakerID string) (string, error) {
	return c.speakerSvc.DisplayName(ctx, speakerID)
}

// embedderAdapter wraps the public Embedder to satisfy internal
// domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		ModelVersion: r.ModelVersion,
		TotalTokens:  r.TotalTokens,
	}, nil
}
