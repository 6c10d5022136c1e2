package redis

import (
	"context"
	"testing"
	"time"

	"geoenrich/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func newTestCache(t *testing.T, ttl time.Duration) (*PointCache, *miniredis.Miniredis) {
	t.Helper()
	client, server := newTestClient(t)
	return NewPointCache(client, ttl, "a1b2c3d4e5f60718"), server
}

func TestPointCacheRoundTrip(t *testing.T) {
	cache, server := newTestCache(t, time.Hour)
	ctx := context.Background()
	point := model.MakePoint(-34.90005, -8.00005)

	_, found, err := cache.Get(ctx, point)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, point, "Recife,PERNAMBUCO,PE,2605,Metropolitana de Recife,26017,Recife"))

	key, found, err := cache.Get(ctx, point)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Recife,PERNAMBUCO,PE,2605,Metropolitana de Recife,26017,Recife", key)

	// a nearby point within Tolerance is not served from the entry
	_, found, err = cache.Get(ctx, model.MakePoint(-34.90008, -8.00008))
	require.NoError(t, err)
	assert.False(t, found)

	assert.Equal(t, []string{"geoenrich:point:a1b2c3d4e5f60718:-34.90005:-8.00005"}, server.Keys())
}

func TestPointCacheNamespaces(t *testing.T) {
	client, server := newTestClient(t)
	ctx := context.Background()
	point := model.MakePoint(-34.9, -8.0)

	before := NewPointCache(client, time.Hour, "1111111111111111")
	after := NewPointCache(client, time.Hour, "2222222222222222")

	require.NoError(t, before.Set(ctx, point, ""))

	_, found, err := after.Get(ctx, point)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, after.Set(ctx, point, "Recife,PERNAMBUCO,PE,2605,Metropolitana de Recife,26017,Recife"))

	key, found, err := before.Get(ctx, point)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, key)

	key, found, err = after.Get(ctx, point)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Recife,PERNAMBUCO,PE,2605,Metropolitana de Recife,26017,Recife", key)

	assert.Len(t, server.Keys(), 2)
}

func TestPointCacheRemembersMisses(t *testing.T) {
	cache, _ := newTestCache(t, time.Hour)
	ctx := context.Background()
	point := model.MakePoint(100, 100)

	require.NoError(t, cache.Set(ctx, point, ""))

	key, found, err := cache.Get(ctx, point)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, key)
}

func TestPointCacheExpires(t *testing.T) {
	cache, server := newTestCache(t, time.Minute)
	ctx := context.Background()
	point := model.MakePoint(-34.9, -8.0)

	require.NoError(t, cache.Set(ctx, point, "Recife"))
	server.FastForward(2 * time.Minute)

	_, found, err := cache.Get(ctx, point)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPointCacheServerDown(t *testing.T) {
	cache, server := newTestCache(t, time.Minute)
	server.Close()

	_, _, err := cache.Get(context.Background(), model.MakePoint(1, 1))
	assert.Error(t, err)
	assert.Error(t, cache.Set(context.Background(), model.MakePoint(1, 1), "x"))
}
