package redis

import "github.com/redis/rueidis"

// NewStoreForTest wires a Store around an injected (mock) client.
func NewStoreForTest(c rueidis.Client, cfg Config) *Store {
	applyDefaults(&cfg)
	return &Store{client: c, cfg: cfg}
}
