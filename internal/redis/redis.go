// Package redisx holds the redis client, key layout and the bookings
// notification channel shared by every replica.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// New connects to redis and pings it. The client is closed again when the
// ping fails.
func New(ctx context.Context, cfg Config) (*redis.Client, error) {
	const op = "redisx.New"

	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: "stayledger",
	})

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return client, nil
}
