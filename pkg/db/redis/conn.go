package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
	ctx    context.Context
}

// New connects and pings. Callers treat a nil Store as "no cache": every
// consumer of the Store degrades gracefully, so a redis outage is never
// fatal to a run.
func New(ctx context.Context, host, port, password, db string) (*Store, error) {
	dbNum, err := strconv.Atoi(db)
	if err != nil {
		return nil, fmt.Errorf("redis: REDIS_DB is not a number: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       dbNum,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return &Store{client: client, ctx: ctx}, nil
}

func (r *Store) Close() error {
	return r.client.Close()
}
