package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgredis "fabricquote/pkg/redis"
)

func newCache(t *testing.T, version string) (*CalculationCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)

	client, err := pkgredis.New(context.Background(), pkgredis.Options{Addr: srv.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return NewCalculationCache(client, time.Hour, version), srv
}

func TestCalculationCache(t *testing.T) {
	ctx := context.Background()
	cache, srv := newCache(t, "v3")

	_, found, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Upsert(ctx, "abc", []byte(`{"cacheHit":false}`)))
	assert.True(t, srv.Exists("calc:v3:abc"))
	assert.Equal(t, time.Hour, srv.TTL("calc:v3:abc"))

	value, found, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"cacheHit":false}`, string(value))

	srv.FastForward(61 * time.Minute)
	_, found, err = cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCalculationCache_VersionIsolatesEntries(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client, err := pkgredis.New(ctx, pkgredis.Options{Addr: srv.Addr()}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	older := NewCalculationCache(client, 0, "v1")
	newer := NewCalculationCache(client, 0, "v2")

	require.NoError(t, older.Upsert(ctx, "abc", []byte("1")))
	_, found, err := newer.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCalculationCache_ServerDown(t *testing.T) {
	ctx := context.Background()
	cache, srv := newCache(t, "")
	srv.Close()

	_, _, err := cache.Get(ctx, "abc")
	assert.Error(t, err)
	assert.Error(t, cache.Upsert(ctx, "abc", []byte("1")))
}
