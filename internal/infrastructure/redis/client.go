package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/redis-idle-scan/internal/domain"
)

// Target describes where to connect. With a MasterName, Addr is a sentinel
// and the client is routed to a replica of that master.
type Target struct {
	Addr             string
	MasterName       string
	Password         string
	SentinelPassword string
	DB               int

	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type Client struct {
	rdb *goredis.Client
}

// New builds a client without touching the network.
func New(t Target) *Client {
	if t.MasterName != "" {
		return &Client{
			rdb: goredis.NewFailoverClient(&goredis.FailoverOptions{
				MasterName:       t.MasterName,
				SentinelAddrs:    []string{t.Addr},
				SentinelPassword: t.SentinelPassword,
				Password:         t.Password,
				DB:               t.DB,
				ReplicaOnly:      true,
				DialTimeout:      t.DialTimeout,
				ReadTimeout:      t.ReadTimeout,
			}),
		}
	}

	return &Client{
		rdb: goredis.NewClient(&goredis.Options{
			Addr:        t.Addr,
			Password:    t.Password,
			DB:          t.DB,
			DialTimeout: t.DialTimeout,
			ReadTimeout: t.ReadTimeout,
		}),
	}
}

// Connect builds a client and verifies it with PING.
func Connect(ctx context.Context, t Target) (*Client, error) {
	c := New(t)
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, domain.ErrRedisUnavailable(err)
	}
	return c, nil
}

func (c *Client) Ping(ctx context.Context) error {
	// short ping timeout is good in bootstrap
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Pager starts a new SCAN enumeration over the client's database.
func (c *Client) Pager(pattern string, count int64) *Pager {
	return NewPager(c.rdb, pattern, count)
}

// Fetcher returns a metadata fetcher bound to the client.
func (c *Client) Fetcher() *MetadataFetcher {
	return NewMetadataFetcher(c.rdb)
}
