package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const noncePrefix = "blockfund:nonce:"

// NonceStore keeps one outstanding challenge per key. Take consumes it.
type NonceStore interface {
	Put(ctx context.Context, key, nonce string, ttl time.Duration) error
	Take(ctx context.Context, key string) (string, error)
}

// RedisNonceStore shares challenges between API instances.
type RedisNonceStore struct {
	rdb *redis.Client
}

func NewRedisNonceStore(rdb *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{rdb: rdb}
}

func (s *RedisNonceStore) Put(ctx context.Context, key, nonce string, ttl time.Duration) error {
	return s.rdb.Set(ctx, noncePrefix+key, nonce, ttl).Err()
}

func (s *RedisNonceStore) Take(ctx context.Context, key string) (string, error) {
	nonce, err := s.rdb.GetDel(ctx, noncePrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrChallengeExpired
	}
	return nonce, err
}

type memoryNonce struct {
	value     string
	expiresAt time.Time
}

// MemoryNonceStore is used when no Redis is configured.
type MemoryNonceStore struct {
	mu    sync.Mutex
	items map[string]memoryNonce
	now   func() time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{items: make(map[string]memoryNonce), now: time.Now}
}

func (s *MemoryNonceStore) Put(_ context.Context, key, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, item := range s.items {
		if now.After(item.expiresAt) {
			delete(s.items, k)
		}
	}
	s.items[key] = memoryNonce{value: nonce, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryNonceStore) Take(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	delete(s.items, key)
	if !ok || s.now().After(item.expiresAt) {
		return "", ErrChallengeExpired
	}
	return item.value, nil
}
