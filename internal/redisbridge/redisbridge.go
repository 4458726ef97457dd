// Package redisbridge republishes the cognitive loop's status snapshot
// to a Redis channel every few seconds. It is purely observational:
// nothing in the core substrate reads from Redis, and a broken or
// absent Redis endpoint never blocks the cognitive loop — the bridge
// runs on its own goroutine and retries with backoff.
package redisbridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/nexusspine/spine/internal/logging"
	"github.com/nexusspine/spine/internal/statusapi"
)

// StatusChannel is the Redis pub/sub channel status snapshots publish to.
const StatusChannel = "nexus:spine:status"

// PublishInterval is how often a status snapshot is published.
const PublishInterval = 5 * time.Second

// reconnectBackoff is how long to wait before retrying a failed Redis
// connection.
const reconnectBackoff = 5 * time.Second

// snapshotSource is the subset of *statusapi.Server the bridge needs:
// the already-assembled JSON-shaped snapshot, without pulling in the
// HTTP transport.
type snapshotSource interface {
	BuildSnapshot() statusapi.Snapshot
}

// Bridge publishes status snapshots from a snapshotSource to Redis on
// a fixed interval.
type Bridge struct {
	url    string
	source snapshotSource
	log    *logging.Logger
}

// New creates a Bridge that will connect to the given Redis URL
// (e.g. "redis://127.0.0.1:6379") when Run is called.
func New(url string, source snapshotSource) *Bridge {
	return &Bridge{url: url, source: source, log: logging.Default().WithComponent("redisbridge")}
}

// Run connects to Redis and publishes status snapshots every
// PublishInterval until ctx is cancelled. Connection failures are
// logged and retried after reconnectBackoff rather than returned,
// keeping the HTTP/cognitive-loop goroutines unaffected by Redis being
// unreachable.
func (b *Bridge) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := b.runOnce(ctx); err != nil {
			b.log.Warn("redis connection lost, retrying", "error", err, "backoff", reconnectBackoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (b *Bridge) runOnce(ctx context.Context) error {
	opts, err := redis.ParseURL(b.url)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return err
	}
	b.log.Info("redis connected", "url", b.url)

	ticker := time.NewTicker(PublishInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := b.publishOnce(ctx, client); err != nil {
				return err
			}
		}
	}
}

func (b *Bridge) publishOnce(ctx context.Context, client *redis.Client) error {
	payload, err := json.Marshal(b.source.BuildSnapshot())
	if err != nil {
		return err
	}
	return client.Publish(ctx, StatusChannel, payload).Err()
}
