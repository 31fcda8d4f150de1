package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// seenKeyPrefix is the prefix for committed message ID keys
const seenKeyPrefix = "helpdesk:seen:"

// MemorySeenSet remembers the most recent message IDs of this process. When
// full, the oldest entry is evicted.
type MemorySeenSet struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	index    map[string]*list.Element
}

func NewMemorySeenSet(capacity int) *MemorySeenSet {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemorySeenSet{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

func (s *MemorySeenSet) Contains(_ context.Context, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[messageID]
	return ok, nil
}

func (s *MemorySeenSet) Add(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[messageID]; ok {
		return nil
	}
	s.index[messageID] = s.order.PushBack(messageID)
	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(string))
	}
	return nil
}

func (s *MemorySeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// RedisSeenSet shares committed message IDs between worker instances. Keys
// expire after ttl; the email table stays the source of truth.
type RedisSeenSet struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSeenSet(client *redis.Client, ttl time.Duration) *RedisSeenSet {
	return &RedisSeenSet{client: client, ttl: ttl}
}

// buildKey builds the Redis key for a message ID
// Format: helpdesk:seen:{message_id}
func (s *RedisSeenSet) buildKey(messageID string) string {
	return seenKeyPrefix + messageID
}

func (s *RedisSeenSet) Contains(ctx context.Context, messageID string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.buildKey(messageID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check seen key: %w", err)
	}
	return exists > 0, nil
}

func (s *RedisSeenSet) Add(ctx context.Context, messageID string) error {
	if err := s.client.Set(ctx, s.buildKey(messageID), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark message seen: %w", err)
	}
	return nil
}
