package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/config"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)

	r := NewRedis(client, time.Hour)
	t.Cleanup(func() { _ = r.Close() })
	return r, mr
}

func TestNewRedisClient_EmptyAddress(t *testing.T) {
	t.Parallel()

	client, err := NewRedisClient(RedisConfig{})
	require.ErrorIs(t, err, ErrEmptyAddress)
	assert.Nil(t, client)
}

func TestRedis_SaveGetRoundTrip(t *testing.T) {
	t.Parallel()

	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleScan()))
	assert.True(t, mr.Exists(Key(testPage)))
	assert.Equal(t, time.Hour, mr.TTL(Key(testPage)))

	got, err := r.Get(ctx, testPage)
	require.NoError(t, err)
	assert.Equal(t, "scan-1", got.ID)
	require.Len(t, got.Candidates, 1)
	assert.Equal(t, testPage+"a.pdf", got.Candidates[0].URL)
	require.NotNil(t, got.DeepScan)
	assert.Equal(t, 2, got.DeepScan.PagesFound)
	assert.True(t, got.ScannedAt.Equal(sampleScan().ScannedAt))
}

func TestRedis_ExpiryAndDelete(t *testing.T) {
	t.Parallel()

	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, sampleScan()))
	mr.FastForward(2 * time.Hour)

	_, err := r.Get(ctx, testPage)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Save(ctx, sampleScan()))
	require.NoError(t, r.Delete(ctx, testPage))
	_, err = r.Get(ctx, testPage)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_CorruptValue(t *testing.T) {
	t.Parallel()

	r, mr := newTestRedis(t)
	require.NoError(t, mr.Set(Key(testPage), "{not json"))

	_, err := r.Get(context.Background(), testPage)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestKey(t *testing.T) {
	t.Parallel()

	k := Key(testPage)
	assert.True(t, strings.HasPrefix(k, keyPrefix))
	assert.Equal(t, k, Key(testPage))
	assert.NotEqual(t, k, Key(testPage+"?page=2"))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	s, err := Open(config.StoreConfig{Backend: config.StoreBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(config.StoreConfig{
		Backend: config.StoreBackendRedis,
		Redis:   config.RedisConfig{Address: mr.Addr()},
	})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.StoreConfig{Backend: "disk"})
	require.Error(t, err)
}
