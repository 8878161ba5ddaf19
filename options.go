package recall

import "go.uber.org/zap"

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver    string // "memory" or "redis"
	addrs     []string
	username  string
	password  string
	db        int
	keyPrefix string

	textDimension     int
	voiceDimension    int
	textModelVersion  string
	voiceModelVersion string

	clusters int
	probes   int

	lexicalWeight  float64
	semanticWeight float64
	matchThreshold float64

	embedder Embedder
	logger   *zap.Logger
}

// WithMemory configures the in-process store. This is the default.
func WithMemory() Option {
	return func(c *clientConfig) {
		c.driver = "memory"
	}
}

// WithRedis configures the client to connect to a Redis instance with
// search modules loaded.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithKeyPrefix overrides the Redis key prefix (default "recall:").
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithDimensions pins the text embedding and voiceprint dimensions. The
// memory store can also infer them from the first write.
func WithDimensions(text, voice int) Option {
	return func(c *clientConfig) {
		c.textDimension = text
		c.voiceDimension = voice
	}
}

// WithModelVersions pins the accepted embedding model versions. Vectors
// stamped with any other version are rejected on write, and cross-version
// queries are refused.
func WithModelVersions(text, voice string) Option {
	return func(c *clientConfig) {
		c.textModelVersion = text
		c.voiceModelVersion = voice
	}
}

// WithANNTuning sets the partitioned index shape: clusters is how many
// partitions the vector space is split into, probes how many are scanned
// per query.
func WithANNTuning(clusters, probes int) Option {
	return func(c *clientConfig) {
		c.clusters = clusters
		c.probes = probes
	}
}

// WithWeights overrides the hybrid fusion weights (default 0.3 lexical,
// 0.7 semantic).
func WithWeights(lexical, semantic float64) Option {
	return func(c *clientConfig) {
		c.lexicalWeight = lexical
		c.semanticWeight = semantic
	}
}

// WithMatchThreshold overrides the speaker match acceptance threshold
// (default 0.85).
func WithMatchThreshold(t float64) Option {
	return func(c *clientConfig) {
		c.matchThreshold = t
	}
}

// WithEmbedder attaches a text embedding provider. Fragments and queries
// arriving without vectors are then embedded transparently.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
