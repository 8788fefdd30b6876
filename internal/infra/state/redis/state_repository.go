package redisstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
)

// RedisStateRepository is the redis implementation of StateRepository. It
// holds only ephemeral coordination state: live slot signup counters and
// disconnect grace windows. Keys are TTL'd so the store is self-cleaning.
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStateRepository creates a RedisStateRepository instance.
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "ft:"
	}
	return &RedisStateRepository{client: client, keyPrefix: keyPrefix}
}

// --- Key generation helpers ---

func (r *RedisStateRepository) slotQueueKey(slot time.Time) string {
	return fmt.Sprintf("%sslot:%d:queue", r.keyPrefix, slot.UTC().Unix())
}

func (r *RedisStateRepository) graceKey(sessionID, userID uint) string {
	return fmt.Sprintf("%ssession:%d:grace:%d", r.keyPrefix, sessionID, userID)
}

// IncrSlotQueue bumps the live signup counter for the slot. The key
// expires one session length past the slot start so abandoned counters
// disappear on their own.
func (r *RedisStateRepository) IncrSlotQueue(ctx context.Context, slot time.Time) (int, error) {
	key := r.slotQueueKey(slot)
	ttl := time.Until(slot.Add(domain.SessionDuration))
	if ttl <= 0 {
		ttl = time.Minute
	}

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis: increment slot queue %s: %w", key, err)
	}
	count, err := incr.Result()
	if err != nil {
		return 0, fmt.Errorf("redis: read slot queue increment %s: %w", key, err)
	}
	return int(count), nil
}

// DecrSlotQueue undoes one signup without driving the counter negative.
func (r *RedisStateRepository) DecrSlotQueue(ctx context.Context, slot time.Time) error {
	key := r.slotQueueKey(slot)
	count, err := r.client.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis: decrement slot queue %s: %w", key, err)
	}
	if count < 0 {
		// The counter had already expired or was never set; clamp back.
		if err := r.client.Set(ctx, key, 0, time.Minute).Err(); err != nil {
			return fmt.Errorf("redis: clamp slot queue %s: %w", key, err)
		}
	}
	return nil
}

// SlotQueueCount reads the live counter; a missing key counts as zero.
func (r *RedisStateRepository) SlotQueueCount(ctx context.Context, slot time.Time) (int, error) {
	key := r.slotQueueKey(slot)
	val, err := r.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis: read slot queue %s: %w", key, err)
	}
	return val, nil
}

// MarkDisconnect opens the participant's grace window; the TTL is the
// window itself.
func (r *RedisStateRepository) MarkDisconnect(ctx context.Context, sessionID, userID uint, grace time.Duration) error {
	key := r.graceKey(sessionID, userID)
	if err := r.client.Set(ctx, key, 1, grace).Err(); err != nil {
		return fmt.Errorf("redis: mark disconnect %s: %w", key, err)
	}
	return nil
}

// InGraceWindow reports whether the grace key still exists.
func (r *RedisStateRepository) InGraceWindow(ctx context.Context, sessionID, userID uint) (bool, error) {
	key := r.graceKey(sessionID, userID)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check grace window %s: %w", key, err)
	}
	return n > 0, nil
}

// ClearDisconnect closes the grace window after a successful rejoin.
func (r *RedisStateRepository) ClearDisconnect(ctx context.Context, sessionID, userID uint) error {
	key := r.graceKey(sessionID, userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: clear grace window %s: %w", key, err)
	}
	return nil
}

func (r *RedisStateRepository) presenceKey(sessionID, userID uint) string {
	return fmt.Sprintf("%ssession:%d:present:%d", r.keyPrefix, sessionID, userID)
}

// MarkPresent records an open presence connection. The TTL is a safety
// net for crashed handlers that never got to ClearPresent.
func (r *RedisStateRepository) MarkPresent(ctx context.Context, sessionID, userID uint) error {
	key := r.presenceKey(sessionID, userID)
	if err := r.client.Set(ctx, key, 1, domain.SessionDuration+time.Hour).Err(); err != nil {
		return fmt.Errorf("redis: mark present %s: %w", key, err)
	}
	return nil
}

// ClearPresent removes the presence marker.
func (r *RedisStateRepository) ClearPresent(ctx context.Context, sessionID, userID uint) error {
	key := r.presenceKey(sessionID, userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: clear present %s: %w", key, err)
	}
	return nil
}

// IsPresent reports whether the presence marker exists.
func (r *RedisStateRepository) IsPresent(ctx context.Context, sessionID, userID uint) (bool, error) {
	key := r.presenceKey(sessionID, userID)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check presence %s: %w", key, err)
	}
	return n > 0, nil
}
