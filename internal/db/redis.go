package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect to redis and ping it, so you may be sure the session store is reachable
// uri: connection string in format redis://...
func ConnectRedis(ctx context.Context, uri string) (*redis.Client, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("cant parse redis uri. Err: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cant connect to redis. Err: %w", err)
	}

	return client, nil
}
