// Package redisstore is the Redis key/value backend.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"budgetrack/internal/log"
	"budgetrack/internal/persist"
)

// Client stores each collection under prefix+key.
type Client struct {
	rdb    redis.UniversalClient
	prefix string
	logger *log.Logger
}

// NewClient parses url, connects and pings the server.
func NewClient(url, prefix string, logger *log.Logger) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, classify("ping", "", fmt.Errorf("failed to connect to redis: %w", err))
	}

	return NewWithClient(rdb, prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb redis.UniversalClient, prefix string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{rdb: rdb, prefix: prefix, logger: logger.WithComponent(log.ComponentStorage)}
}

func (c *Client) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("load", key, err)
	}
	return data, true, nil
}

func (c *Client) Save(ctx context.Context, key string, data []byte) error {
	if err := c.rdb.Set(ctx, c.prefix+key, data, 0).Err(); err != nil {
		return classify("save", key, err)
	}
	c.logger.DebugContext(ctx, "Collection saved to Redis", log.FieldKey, c.prefix+key)
	return nil
}

// Ping checks connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func classify(op, key string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "NOAUTH"), strings.Contains(msg, "WRONGPASS"), strings.Contains(msg, "NOPERM"):
		return persist.NewError(op, key, persist.CategoryAuth, err)
	case strings.Contains(msg, "WRONGTYPE"):
		return persist.NewError(op, key, persist.CategorySchema, err)
	}
	return persist.Wrap(op, key, err)
}
