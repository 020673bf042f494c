package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/haggle-core-poc/server/internal/core/error"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

const (
	triggerKey = "negotiation:face_trigger"
	resetKey   = "negotiation:time_reset"
	resultKey  = "negotiation:result"
)

// RedisChannel carries the same handshake over plain keys in Redis, for
// deployments where the worker runs on another host and shared files are not
// an option. Semantics match FileChannel: last write wins, no delivery
// guarantee.
type RedisChannel struct {
	rdb redis.Cmdable
}

func NewRedisChannel(rdb redis.Cmdable) *RedisChannel {
	return &RedisChannel{rdb: rdb}
}

func (c *RedisChannel) PublishTrigger(ctx context.Context) error {
	stamp := time.Now().Format(time.RFC3339)
	if err := c.rdb.Set(ctx, triggerKey, stamp, 0).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (c *RedisChannel) PublishItemReset(ctx context.Context, itemID string) error {
	body := fmt.Sprintf("reset at %s for item %s", time.Now().Format(time.RFC3339), itemID)
	if err := c.rdb.Set(ctx, resetKey, body, 0).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (c *RedisChannel) ReadLatestResult(ctx context.Context) (*model.FaceResult, error) {
	raw, err := c.rdb.Get(ctx, resultKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapRedis(err)
	}

	var res model.FaceResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		logx.Warn().Err(err).Str("key", resultKey).Msg("malformed analysis result, treating as absent")
		return nil, nil
	}
	return &res, nil
}

var _ Channel = (*RedisChannel)(nil)
