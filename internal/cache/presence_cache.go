package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mockmate/internal/model"
)

// PresenceCache mirrors the per-session online set into a Redis hash so other
// instances can read who is live. The in-process tracker stays authoritative;
// writes here are best-effort.
type PresenceCache interface {
	SetOnline(ctx context.Context, p *model.Participant) error
	SetOffline(ctx context.Context, p *model.Participant) error
	GetOnline(ctx context.Context, sessionID string) ([]*model.Participant, error)
	Clear(ctx context.Context, sessionID string) error
}

type presenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPresenceCache creates a new presence cache
func NewPresenceCache(client *redis.Client) PresenceCache {
	return &presenceCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *presenceCache) key(sessionID string) string {
	return fmt.Sprintf("session:%s:presence", sessionID)
}

func (c *presenceCache) SetOnline(ctx context.Context, p *model.Participant) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	key := c.key(p.SessionID)
	if err := c.client.HSet(ctx, key, p.UserID, data).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *presenceCache) SetOffline(ctx context.Context, p *model.Participant) error {
	return c.client.HDel(ctx, c.key(p.SessionID), p.UserID).Err()
}

func (c *presenceCache) GetOnline(ctx context.Context, sessionID string) ([]*model.Participant, error) {
	entries, err := c.client.HGetAll(ctx, c.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	participants := make([]*model.Participant, 0, len(entries))
	for _, raw := range entries {
		var p model.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, err
		}
		participants = append(participants, &p)
	}
	return participants, nil
}

func (c *presenceCache) Clear(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}
