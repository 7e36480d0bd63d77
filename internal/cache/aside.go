package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"hearth/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: return the cached value for key
// if present, otherwise run fetch (which must populate dest) and store the
// result with the given TTL. Cache failures are logged and degrade to a
// plain fetch; they never fail the request.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		if unmarshalErr := json.Unmarshal(raw, dest); unmarshalErr == nil {
			return nil
		}
		// Corrupt entry: drop it and fall through to fetch.
		client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := fetch(); err != nil {
		return err
	}

	if raw, marshalErr := json.Marshal(dest); marshalErr == nil {
		if setErr := client.Set(ctx, key, raw, ttl).Err(); setErr != nil {
			middleware.Logger.WarnContext(ctx, "cache write failed",
				slog.String("key", key), slog.String("error", setErr.Error()))
		}
	}
	return nil
}
