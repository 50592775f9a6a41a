package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/redis-idle-scan/internal/scan"
)

// ttlMissing is what TTL answers for a key that does not exist.
const ttlMissing = -2

// MetadataFetcher reads idle time, and optionally TTL, for a page of keys
// in one pipelined round trip.
type MetadataFetcher struct {
	rdb goredis.Cmdable
}

func NewMetadataFetcher(rdb goredis.Cmdable) *MetadataFetcher {
	return &MetadataFetcher{rdb: rdb}
}

// Fetch implements scan.Fetcher. Keys deleted since they were scanned come
// back with Gone set; any other command failure fails the whole batch.
func (f *MetadataFetcher) Fetch(ctx context.Context, keys []string, withTTL bool) ([]scan.KeyRecord, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := f.rdb.Pipeline()
	idle := make([]*goredis.DurationCmd, len(keys))
	var ttl []*goredis.DurationCmd
	if withTTL {
		ttl = make([]*goredis.DurationCmd, len(keys))
	}
	for i, k := range keys {
		// OBJECT IDLETIME key
		idle[i] = pipe.ObjectIdleTime(ctx, k)
		if withTTL {
			ttl[i] = pipe.TTL(ctx, k)
		}
	}

	// Exec reports the first failed command, which may just be a vanished
	// key; real failures are picked up per command below.
	_, execErr := pipe.Exec(ctx)

	out := make([]scan.KeyRecord, len(keys))
	for i, k := range keys {
		rec := scan.KeyRecord{Key: k}

		d, err := idle[i].Result()
		switch {
		case errors.Is(err, goredis.Nil):
			rec.Gone = true
		case err != nil:
			return nil, err
		default:
			rec.IdleTime = seconds(d)
		}

		if withTTL {
			d, err := ttl[i].Result()
			if err != nil {
				return nil, err
			}
			rec.TTL = seconds(d)
			if rec.TTL == ttlMissing {
				rec.Gone = true
			}
		}

		out[i] = rec
	}
	if execErr != nil && !errors.Is(execErr, goredis.Nil) {
		return nil, execErr
	}
	return out, nil
}

// seconds converts a reply of second precision back to whole seconds.
// Negative replies (-1 no expiry, -2 missing) are passed through unscaled.
func seconds(d time.Duration) int64 {
	if d < 0 {
		return int64(d)
	}
	return int64(d / time.Second)
}
