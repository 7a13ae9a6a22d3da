package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mockmate/internal/model"
)

// SessionCache mirrors session metadata in Redis for cheap reads by the
// transport layer. Mongo remains the source of truth; a miss here falls
// through to the repository.
type SessionCache interface {
	SetMeta(ctx context.Context, meta *model.SessionMeta) error
	GetMeta(ctx context.Context, sessionID string) (*model.SessionMeta, error)
	SetStatus(ctx context.Context, sessionID string, status model.SessionStatus) error
	Delete(ctx context.Context, sessionID string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    24 * time.Hour, // interview rooms never outlive a day
	}
}

func (c *sessionCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:meta", sessionID)
}

func (c *sessionCache) SetMeta(ctx context.Context, meta *model.SessionMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(meta.ID), data, c.ttl).Err()
}

func (c *sessionCache) GetMeta(ctx context.Context, sessionID string) (*model.SessionMeta, error) {
	data, err := c.client.Get(ctx, c.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta model.SessionMeta
	if err := json.Unmarshal([]byte(data), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *sessionCache) SetStatus(ctx context.Context, sessionID string, status model.SessionStatus) error {
	meta, err := c.GetMeta(ctx, sessionID)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("session %s not cached", sessionID)
	}
	meta.Status = status
	return c.SetMeta(ctx, meta)
}

func (c *sessionCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
