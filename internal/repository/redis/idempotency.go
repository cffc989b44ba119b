package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockValue    = "LOCK"
	resultPrefix = "RES:"
)

// ClaimState is the outcome of claiming an idempotency key.
type ClaimState int

const (
	// ClaimAcquired means the caller owns the key and must either save a
	// result or release it.
	ClaimAcquired ClaimState = iota
	// ClaimReplay means a previous request already stored its result.
	ClaimReplay
	// ClaimInProgress means another request holds the key.
	ClaimInProgress
)

type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

// Claim looks up a stored result for key and, when there is none, tries to
// lock the key for lockTTL.
func (s *IdempotencyStore) Claim(ctx context.Context, key string, lockTTL time.Duration) (string, ClaimState, error) {
	if payload, ok, err := s.GetResult(ctx, key); err != nil {
		return "", ClaimInProgress, err
	} else if ok {
		return payload, ClaimReplay, nil
	}

	locked, err := s.rdb.SetNX(ctx, key, lockValue, lockTTL).Result()
	if err != nil {
		return "", ClaimInProgress, err
	}
	if locked {
		return "", ClaimAcquired, nil
	}

	// Lost the race; the winner may have finished in between.
	if payload, ok, err := s.GetResult(ctx, key); err == nil && ok {
		return payload, ClaimReplay, nil
	}

	return "", ClaimInProgress, nil
}

func (s *IdempotencyStore) SaveResult(ctx context.Context, key string, jsonPayload string) error {
	return s.rdb.Set(ctx, key, resultPrefix+jsonPayload, s.ttl).Err()
}

func (s *IdempotencyStore) GetResult(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if payload, ok := strings.CutPrefix(v, resultPrefix); ok {
		return payload, true, nil
	}

	return "", false, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
