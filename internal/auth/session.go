package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ms-parking/internal/logger"

	"github.com/go-redis/redis/v8"
)

// SessionKeyPrefix namespaces live token ids in Redis.
const SessionKeyPrefix = "parking:session:"

// SessionStore remembers which issued tokens are still live so logout can
// revoke them before they expire.
type SessionStore interface {
	Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error
	Exists(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
}

// RedisSessionStore keeps sessions in Redis with the token TTL.
type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func (s *RedisSessionStore) Save(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	if s.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := s.Client.Set(ctx, SessionKeyPrefix+tokenID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, tokenID string) (bool, error) {
	if s.Client == nil {
		return false, fmt.Errorf("redis client not initialized")
	}
	_, err := s.Client.Get(ctx, SessionKeyPrefix+tokenID).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("failed to get session from Redis: %w", err)
	}
	return true, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, tokenID string) error {
	if s.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := s.Client.Del(ctx, SessionKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("failed to delete session from Redis: %w", err)
	}
	return nil
}

// ConnectRedis opens a client and checks the connection.
func ConnectRedis(addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error("AUTH", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		client.Close()
		return nil, err
	}

	log.Info("AUTH", fmt.Sprintf("Connected to Redis at %s for session storage", addr))
	return client, nil
}

// MemorySessionStore is used when Redis is disabled. Sessions do not survive
// a restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]time.Time), now: time.Now}
}

func (s *MemorySessionStore) Save(_ context.Context, tokenID, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenID] = s.now().Add(ttl)
	return nil
}

func (s *MemorySessionStore) Exists(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.sessions[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(exp) {
		delete(s.sessions, tokenID)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Revoke(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}
