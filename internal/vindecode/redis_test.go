package vindecode

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/vehicle-intake/internal/common"
)

func newTestRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, ttl, nil), mr
}

func TestRedisCacheRoundTripAndStats(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Hour)

	_, ok := c.Get("1HGCM82633A004352")
	assert.False(t, ok)

	c.Add("1HGCM82633A004352", Vehicle{VIN: "1HGCM82633A004352", Make: "HONDA", Model: "Accord"})
	v, ok := c.Get("1HGCM82633A004352")
	require.True(t, ok)
	assert.Equal(t, "Accord", v.Model)

	assert.True(t, mr.Exists(redisKeyPrefix+"1HGCM82633A004352"))
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+"1HGCM82633A004352"))

	s := c.Stats()
	assert.Equal(t, 1, s.Entries)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, time.Hour, s.TTL)
}

func TestRedisCacheExpiry(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Minute)
	c.Add("1HGCM82633A004352", Vehicle{VIN: "1HGCM82633A004352"})

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get("1HGCM82633A004352")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestRedisCachePurgeKeepsForeignKeys(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Hour)
	require.NoError(t, mr.Set("other:key", "x"))
	c.Add("1HGCM82633A004352", Vehicle{VIN: "1HGCM82633A004352"})
	c.Add("JH4KA7561PC008269", Vehicle{VIN: "JH4KA7561PC008269"})
	_, _ = c.Get("1HGCM82633A004352")
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Stats().Hits)
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestRedisCache(t, time.Hour)
	require.NoError(t, mr.Set(redisKeyPrefix+"1HGCM82633A004352", "{not json"))
	_, ok := c.Get("1HGCM82633A004352")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Misses)
}

func TestCachingDecoderSharedThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	next := &countingDecoder{}

	// Two decoders on the same Redis act like two processes.
	for i := 0; i < 2; i++ {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		d := NewCachingDecoder(next, NewRedisCache(client, time.Hour, nil), nil)
		_, err := d.Decode(context.Background(), "1HGCM82633A004352")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, next.calls)
}

func TestNewFromConfigUsesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	d := NewFromConfig(common.VINDecodeConfig{
		Enabled:   true,
		CacheSize: 3,
		CacheTTL:  time.Minute,
		RedisAddr: mr.Addr(),
	}, nil)
	require.NotNil(t, d)
	assert.Zero(t, d.Stats().MaxSize)
}

func TestDialRedis(t *testing.T) {
	_, err := DialRedis("", 0)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client, err := DialRedis(mr.Addr(), 0)
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
