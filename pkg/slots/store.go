// Package slots provides named, short-lived persisted slots scoped to a user:
// the server-side equivalent of the client's local storage entries (pending
// order draft, payment session, in-flight guard, created-order marker). Values
// are JSON-serialized and expire with a per-write TTL.
package slots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	pkgredis "github.com/oelhadidy/agrovet-backend/pkg/redis"
)

// Well-known slot names.
const (
	SlotPendingDraft  = "pending_order_draft"
	SlotPaymentMethod = "pending_payment_method"
	SlotLastSession   = "last_payment_session"
	SlotInflightGuard = "inflight_guard"
	SlotCreatedMarker = "created_order_marker"
)

// ErrNotFound signals the slot is empty or expired.
var ErrNotFound = errors.New("slot not found")

// Store is the persisted slot surface. Claim is an atomic set-if-absent used
// by the payment callback guard; plain Put overwrites unconditionally.
type Store interface {
	Get(ctx context.Context, userID, name string) ([]byte, error)
	Put(ctx context.Context, userID, name string, value []byte, ttl time.Duration) error
	Claim(ctx context.Context, userID, name string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, userID, name string) error
}

// GetJSON reads and decodes a slot into dest.
func GetJSON(ctx context.Context, store Store, userID, name string, dest any) error {
	raw, err := store.Get(ctx, userID, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode slot %s: %w", name, err)
	}
	return nil
}

// PutJSON encodes value and writes it to the slot.
func PutJSON(ctx context.Context, store Store, userID, name string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", name, err)
	}
	return store.Put(ctx, userID, name, raw, ttl)
}

// ClaimJSON encodes value and atomically claims the slot.
func ClaimJSON(ctx context.Context, store Store, userID, name string, value any, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode slot %s: %w", name, err)
	}
	return store.Claim(ctx, userID, name, raw, ttl)
}

// RedisStore persists slots in Redis.
type RedisStore struct {
	client *pkgredis.Client
}

// NewRedisStore wraps the shared redis client.
func NewRedisStore(client *pkgredis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, userID, name string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.client.SlotKey(userID, name))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return []byte(raw), nil
}

func (s *RedisStore) Put(ctx context.Context, userID, name string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.client.SlotKey(userID, name), string(value), ttl)
}

func (s *RedisStore) Claim(ctx context.Context, userID, name string, value []byte, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.client.SlotKey(userID, name), string(value), ttl)
}

func (s *RedisStore) Delete(ctx context.Context, userID, name string) error {
	return s.client.Del(ctx, s.client.SlotKey(userID, name))
}
