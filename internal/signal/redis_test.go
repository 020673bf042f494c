package signal

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisChannel(t *testing.T) (*RedisChannel, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisChannel(rdb), mr
}

func TestRedisChannelMissingResult(t *testing.T) {
	ch, _ := newRedisChannel(t)

	res, err := ch.ReadLatestResult(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRedisChannelCorruptResult(t *testing.T) {
	ch, mr := newRedisChannel(t)
	require.NoError(t, mr.Set("negotiation:result", "{broken"))

	res, err := ch.ReadLatestResult(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestRedisChannelReadsWorkerResult(t *testing.T) {
	ch, mr := newRedisChannel(t)
	require.NoError(t, mr.Set("negotiation:result", `{"primary_expression":"Angry","final_concession":33.0}`))

	res, err := ch.ReadLatestResult(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Angry", res.PrimaryExpression)
	require.NotNil(t, res.FinalConcession)
	assert.Equal(t, 33.0, *res.FinalConcession)
}

func TestRedisChannelPublishesSignals(t *testing.T) {
	ch, mr := newRedisChannel(t)
	ctx := context.Background()

	require.NoError(t, ch.PublishTrigger(ctx))
	assert.True(t, mr.Exists("negotiation:face_trigger"))

	require.NoError(t, ch.PublishItemReset(ctx, "item-7"))
	reset, err := mr.Get("negotiation:time_reset")
	require.NoError(t, err)
	assert.Contains(t, reset, "item-7")
}
