package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"travel-journal/internal/model"
)

// EntryCache keeps single-entry reads in redis. A dirty marker set on every
// mutation stops readers from repopulating a key with a stale row while the
// write is settling.
type EntryCache struct {
	client         *redisv9.Client
	entryTTL       time.Duration
	dirtyMarkerTTL time.Duration
}

func NewEntryCache(client *redisv9.Client, entryTTL, dirtyMarkerTTL time.Duration) *EntryCache {
	if entryTTL <= 0 {
		entryTTL = 300 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &EntryCache{
		client:         client,
		entryTTL:       entryTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *EntryCache) Get(ctx context.Context, id string) (*model.Entry, bool, error) {
	raw, err := c.client.Get(ctx, c.entryKey(id)).Result()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get entry failed: %w", err)
	}

	var entry model.Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached entry failed: %w", err)
	}
	// the owner id is not part of the JSON form
	if entry.Author != nil {
		entry.UserID = entry.Author.ID
	}
	return &entry, true, nil
}

func (c *EntryCache) Set(ctx context.Context, entry *model.Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.entryKey(entry.ID), payload, c.entryTTL).Err(); err != nil {
		return fmt.Errorf("redis set entry failed: %w", err)
	}
	return nil
}

func (c *EntryCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.entryKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete entry failed: %w", err)
	}
	return nil
}

func (c *EntryCache) MarkDirty(ctx context.Context, id string) error {
	if err := c.client.Set(ctx, c.dirtyKey(id), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *EntryCache) IsDirty(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

// Invalidate marks the entry dirty and drops the cached copy.
func (c *EntryCache) Invalidate(ctx context.Context, id string) error {
	return errors.Join(c.MarkDirty(ctx, id), c.Delete(ctx, id))
}

func (c *EntryCache) entryKey(id string) string {
	return "entry:" + id
}

func (c *EntryCache) dirtyKey(id string) string {
	return "entry:dirty:" + id
}
