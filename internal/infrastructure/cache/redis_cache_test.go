package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PoliticianEvaluator/internal/config"
)

type fakeRedis struct {
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCacheRoundTrip(t *testing.T) {
	t.Parallel()

	fake := &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
	c := newRedisCache(fake, "polieval:", time.Hour)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", `{"items":[]}`))
	assert.Equal(t, time.Hour, fake.ttls["polieval:k"])

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"items":[]}`, v)
}

func TestRedisCacheGetError(t *testing.T) {
	t.Parallel()

	c := newRedisCache(&fakeRedis{failGet: errors.New("connection refused")}, "", 0)
	_, ok, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, ok)
}

func TestNewRedisCacheDisabled(t *testing.T) {
	t.Parallel()

	c, closeFn, err := NewRedisCache(context.Background(), config.CacheConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, closeFn())
}
