package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// Pager walks the key space with SCAN, one page per call.
// Not safe for concurrent use.
type Pager struct {
	rdb     goredis.Cmdable
	pattern string
	count   int64

	cursor uint64
	done   bool
}

func NewPager(rdb goredis.Cmdable, pattern string, count int64) *Pager {
	return &Pager{rdb: rdb, pattern: pattern, count: count}
}

// NextPage implements scan.Pager. The cursor returning to 0 ends the walk.
func (p *Pager) NextPage(ctx context.Context) ([]string, bool, error) {
	if p.done {
		return nil, true, nil
	}

	keys, next, err := p.rdb.Scan(ctx, p.cursor, p.pattern, p.count).Result()
	if err != nil {
		return nil, false, err
	}

	p.cursor = next
	p.done = next == 0
	return keys, p.done, nil
}
