package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aryan083/pokedex/internal/db"
	"github.com/aryan083/pokedex/internal/metrics"
)

// store is the consumer interface for cached responses (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Responses caches serialized response payloads. Failures degrade to a
// cache miss, they never fail the request.
type Responses struct {
	store  store
	logger *zap.Logger
}

// NewResponses creates a response cache over the key-value store.
func NewResponses(s store, logger *zap.Logger) *Responses {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responses{store: s, logger: logger}
}

// Get loads a cached payload into out. Returns false on miss, on store
// error and on a stale payload that no longer unmarshals.
func (c *Responses) Get(ctx context.Context, kind, key string, out any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("response cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.ResponseCacheOps.WithLabelValues(kind, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("response cache payload corrupt", zap.String("key", key), zap.Error(err))
		metrics.ResponseCacheOps.WithLabelValues(kind, "miss").Inc()
		return false
	}

	metrics.ResponseCacheOps.WithLabelValues(kind, "hit").Inc()
	return true
}

// Set stores a payload with a TTL in seconds. Errors are logged, not returned.
func (c *Responses) Set(ctx context.Context, key string, value any, ttlSeconds int) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("response cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if err := c.store.SetWithTTL(ctx, key, raw, ttl); err != nil {
		c.logger.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
	}
}
