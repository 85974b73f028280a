package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rosterhub/internal/models"
)

// SessionRepository persists per-session navigation state in Redis.
// State is ephemeral: it lives as long as the session TTL and is removed
// entirely on logout.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionRepository{client: client, ttl: ttl}
}

func sessionKey(userID string) string {
	return "session:nav:" + userID
}

// Load returns the stored navigation state for a user, or the empty
// state when none exists yet.
func (r *SessionRepository) Load(ctx context.Context, userID string) (models.NavigationState, error) {
	var state models.NavigationState
	raw, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return state, nil
		}
		return state, fmt.Errorf("load session state: %w", err)
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.NavigationState{}, fmt.Errorf("decode session state: %w", err)
	}
	return state, nil
}

// Save stores the navigation state, refreshing the session TTL.
func (r *SessionRepository) Save(ctx context.Context, userID string, state models.NavigationState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(userID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

// Clear removes the navigation state entirely (logout).
func (r *SessionRepository) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear session state: %w", err)
	}
	return nil
}
