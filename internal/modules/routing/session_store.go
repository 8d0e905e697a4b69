package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fleet-ops/internal/models"

	"github.com/redis/go-redis/v9"
)

// SessionStore holds at most one OptimizedRoute per operator. Keeping the
// session keyed by user rather than in ambient process state lets
// concurrent operators (or browser tabs) optimize without clobbering each
// other.
type SessionStore interface {
	Get(ctx context.Context, userID string) (*models.OptimizedRoute, error)
	Put(ctx context.Context, userID string, route *models.OptimizedRoute) error
	Clear(ctx context.Context, userID string) error
}

// RedisSessionStore implements SessionStore on Redis with a TTL, so
// abandoned sessions expire on their own.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a session store. A zero ttl defaults to
// thirty minutes.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(userID string) string {
	return "route_session:" + userID
}

// Get returns the operator's current route, or ErrNotFound.
func (s *RedisSessionStore) Get(ctx context.Context, userID string) (*models.OptimizedRoute, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("session.Get: %w", err)
	}

	var route models.OptimizedRoute
	if err := json.Unmarshal(raw, &route); err != nil {
		return nil, fmt.Errorf("session.Get unmarshal: %w", err)
	}
	return &route, nil
}

// Put stores the route, replacing any previous one.
func (s *RedisSessionStore) Put(ctx context.Context, userID string, route *models.OptimizedRoute) error {
	raw, err := json.Marshal(route)
	if err != nil {
		return fmt.Errorf("session.Put marshal: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session.Put: %w", err)
	}
	return nil
}

// Clear discards the operator's session unconditionally.
func (s *RedisSessionStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}
