package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-capture/internal/domain/repositories"
	"github.com/johnquangdev/meeting-capture/pkg/config"
)

const sessionKeyPrefix = "session:"

// sessionTTL keeps stale entries from outliving a crashed session for long;
// active sessions refresh the key on every state change and heartbeat.
const sessionTTL = 10 * time.Minute

// RedisStatusStore publishes live session state to Redis for dashboard
// consumers
type RedisStatusStore struct {
	client *redis.Client
}

// NewRedisClient creates and pings a Redis client from config
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStatusStore creates a Redis-backed status store
func NewRedisStatusStore(client *redis.Client) *RedisStatusStore {
	return &RedisStatusStore{client: client}
}

// SetSessionState records the current state of an active session
func (s *RedisStatusStore) SetSessionState(ctx context.Context, meetingID, state string) error {
	return s.client.Set(ctx, sessionKeyPrefix+meetingID, state, sessionTTL).Err()
}

// ClearSession removes a session entry
func (s *RedisStatusStore) ClearSession(ctx context.Context, meetingID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+meetingID).Err()
}

// ListSessions retrieves all currently published sessions
func (s *RedisStatusStore) ListSessions(ctx context.Context) ([]repositories.SessionStatus, error) {
	var sessions []repositories.SessionStatus

	iter := s.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		state, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				continue // expired between scan and get
			}
			return nil, err
		}
		sessions = append(sessions, repositories.SessionStatus{
			MeetingID: key[len(sessionKeyPrefix):],
			State:     state,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
