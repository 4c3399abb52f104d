package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 10 * time.Minute

// CachedSearcher decorates a Searcher with a short-lived Redis cache so
// repeated ranking requests for the same query do not hammer the
// upstream adapter. Cache errors fall through to the wrapped searcher.
type CachedSearcher struct {
	next   Searcher
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedSearcher wraps next with a Redis cache
func NewCachedSearcher(next Searcher, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedSearcher {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &CachedSearcher{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

var _ Searcher = (*CachedSearcher)(nil)

// Search serves from cache when possible, otherwise delegates and stores
func (c *CachedSearcher) Search(ctx context.Context, query, location string) ([]Record, error) {
	key := cacheKey(query, location)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		var records []Record
		if err := json.Unmarshal([]byte(cached), &records); err == nil {
			c.logger.Debug("Listing cache hit",
				slog.String("key", key),
				slog.Int("records", len(records)),
			)
			return records, nil
		}
		// poisoned value, fall through to the adapter
		c.logger.Warn("Dropping undecodable listing cache value",
			slog.String("key", key),
		)
	} else if err != redis.Nil {
		c.logger.Warn("Listing cache read failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}

	records, err := c.next.Search(ctx, query, location)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("Listing cache write failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}

	return records, nil
}

func cacheKey(query, location string) string {
	return fmt.Sprintf("listings:%s:%s",
		strings.ToLower(strings.TrimSpace(query)),
		strings.ToLower(strings.TrimSpace(location)),
	)
}
