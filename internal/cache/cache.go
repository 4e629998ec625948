// Package cache keeps materialised board snapshots in redis.
//
// Each board has a version counter. Snapshots are stored under the version
// that was current when loading began, and every committed mutation bumps the
// version, so a snapshot loaded concurrently with a mutation is never served
// after that mutation has been confirmed.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"strello/internal/metrics"
	"strello/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const versionTTL = 24 * time.Hour

type backend interface {
	Snapshot(ctx context.Context, boardID uuid.UUID) (model.Snapshot, error)
}

type SnapshotCache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
	log   *log.Entry
}

// New wraps base with a redis read-through cache. A nil client or a zero ttl
// disables caching; loads are still coalesced.
func New(base backend, client *redis.Client, ttl time.Duration) *SnapshotCache {
	if base == nil {
		panic("cache.New: base is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &SnapshotCache{
		base:  base,
		redis: client,
		ttl:   ttl,
		log:   log.WithField("component", "snapshot-cache"),
	}
}

func (c *SnapshotCache) Snapshot(ctx context.Context, boardID uuid.UUID) (model.Snapshot, error) {
	version, ok := c.version(ctx, boardID)
	if !ok {
		return c.load(ctx, boardID, "")
	}
	key := snapshotKey(boardID, version)
	if snap, ok := c.fromCache(ctx, key); ok {
		metrics.SnapshotCacheTotal.WithLabelValues("hit").Inc()
		return snap, nil
	}
	metrics.SnapshotCacheTotal.WithLabelValues("miss").Inc()
	return c.load(ctx, boardID, key)
}

// BoardChanged invalidates every cached snapshot of a board. Call it after
// the mutation has committed.
func (c *SnapshotCache) BoardChanged(ctx context.Context, boardID uuid.UUID) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(boardID))
		pipe.Expire(ctx, versionKey(boardID), versionTTL)
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithField("board_id", boardID).Warn("failed to bump snapshot version")
	}
}

// load reads the board from the backend, coalescing concurrent loads of the
// same version, and stores the result under key when key is set.
func (c *SnapshotCache) load(ctx context.Context, boardID uuid.UUID, key string) (model.Snapshot, error) {
	flight := key
	if flight == "" {
		flight = "board:" + boardID.String()
	}
	v, err, _ := c.group.Do(flight, func() (interface{}, error) {
		snap, err := c.base.Snapshot(ctx, boardID)
		if err != nil {
			return nil, err
		}
		if key != "" {
			c.store(ctx, key, snap)
		}
		return snap, nil
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return v.(model.Snapshot).Clone(), nil
}

// version returns the board's current version; ok is false when redis is
// unavailable.
func (c *SnapshotCache) version(ctx context.Context, boardID uuid.UUID) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	v, err := c.redis.Get(ctx, versionKey(boardID)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		metrics.SnapshotCacheTotal.WithLabelValues("error").Inc()
		c.log.WithError(err).Debug("redis unavailable, reading through")
		return "", false
	}
	return v, true
}

func (c *SnapshotCache) fromCache(ctx context.Context, key string) (model.Snapshot, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			_ = c.redis.Del(ctx, key).Err()
		}
		return model.Snapshot{}, false
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return model.Snapshot{}, false
	}
	return snap, true
}

func (c *SnapshotCache) store(ctx context.Context, key string, snap model.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("failed to store snapshot")
	}
}

func versionKey(boardID uuid.UUID) string {
	return "board:" + boardID.String() + ":version"
}

func snapshotKey(boardID uuid.UUID, version string) string {
	return "board:" + boardID.String() + ":snapshot:" + version
}
