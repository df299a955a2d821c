package pubsub

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cesizen/cesizen/internal/runner"
)

// Channel is the Redis channel carrying the snapshots of one session.
func Channel(sessionID string) string {
	return "cesizen:breathing:" + sessionID
}

// RedisPublisher broadcasts session snapshots on Channel(sessionID). It is
// write-only; consumers in other services subscribe to the channel directly.
type RedisPublisher struct {
	rdb *goredis.Client
}

// NewRedisPublisher connects to redisURL, e.g. "redis://localhost:6379/0".
func NewRedisPublisher(ctx context.Context, redisURL string) (*RedisPublisher, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	return &RedisPublisher{rdb: rdb}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, snap runner.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	return errors.Wrapf(p.rdb.Publish(ctx, Channel(sessionID), data).Err(), "publish to %s", Channel(sessionID))
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
