package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"

	// A short expiry on IN_PROGRESS keeps a crashed handler from blocking
	// the provider's retry forever.
	inProgressExpiry = 10 * time.Second
	completedExpiry  = 24 * time.Hour
)

// ErrInProgress is returned when another handler is already processing the
// same provider reference.
var ErrInProgress = errors.New("webhook already in progress")

// IdempotencyStore deduplicates provider callbacks: gateways redeliver
// webhooks, and a replayed reference must not be processed twice.
type IdempotencyStore interface {
	Begin(ctx context.Context, gateway, reference string) (duplicate bool, err error)
	Complete(ctx context.Context, gateway, reference string) error
}

// RedisStore implements IdempotencyStore on Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func key(gateway, reference string) string {
	return fmt.Sprintf("webhook:%s:%s", gateway, reference)
}

// Begin marks the reference IN_PROGRESS. It reports duplicate=true when the
// reference was already completed, and ErrInProgress when a concurrent
// handler holds it. SETNX makes the check-and-set atomic.
func (r *RedisStore) Begin(ctx context.Context, gateway, reference string) (bool, error) {
	k := key(gateway, reference)

	status, err := r.client.Get(ctx, k).Result()
	if err == nil && status == statusCompleted {
		return true, nil
	}

	set, err := r.client.SetNX(ctx, k, statusInProgress, inProgressExpiry).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX: %w", err)
	}
	if !set {
		return true, ErrInProgress
	}
	return false, nil
}

// Complete marks the reference COMPLETED with a long expiry.
func (r *RedisStore) Complete(ctx context.Context, gateway, reference string) error {
	return r.client.Set(ctx, key(gateway, reference), statusCompleted, completedExpiry).Err()
}
