package vindecode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/vehicle-intake/internal/common"
)

func TestCleanVIN(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1hgcm82633a004352", "1HGCM82633A004352", true},
		{" 1HG-CM8 2633A00 4352 ", "1HGCM82633A004352", true},
		{"1HGCM82633A00435", "", false},
		{"1HGCM82633A0043521", "", false},
		{"1HGCM82633AOO4352", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, err := CleanVIN(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidVIN, tt.in)
			assert.ErrorIs(t, err, common.ErrInvalidInput, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func nhtsaServer(t *testing.T, status int, body any, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		assert.Equal(t, "/api/vehicles/decodevin/1HGCM82633A004352", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func str(s string) *string { return &s }

var hondaResults = map[string]any{
	"Count":   5,
	"Message": "Results returned successfully",
	"Results": []map[string]any{
		{"Variable": "Make", "Value": str("HONDA")},
		{"Variable": "Model", "Value": str("Accord")},
		{"Variable": "Model Year", "Value": str("2003")},
		{"Variable": "Engine Number of Cylinders", "Value": str("4")},
		{"Variable": "Body Class", "Value": str("Coupe")},
		{"Variable": "Trim", "Value": nil},
	},
}

func TestNHTSAClientDecode(t *testing.T) {
	srv := nhtsaServer(t, http.StatusOK, hondaResults, nil)
	c := NewNHTSAClient(srv.URL+"/api/", time.Second, srv.Client(), nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	v, err := c.Decode(context.Background(), "1HGCM82633A004352")
	require.NoError(t, err)
	assert.Equal(t, Vehicle{
		VIN:             "1HGCM82633A004352",
		Make:            "HONDA",
		Model:           "Accord",
		Year:            "2003",
		EngineCylinders: "4",
		BodyClass:       "Coupe",
		DecodedAt:       fixed,
	}, v)
}

func TestNHTSAClientUpstreamErrors(t *testing.T) {
	cases := map[string]*httptest.Server{
		"non-2xx":    nhtsaServer(t, http.StatusServiceUnavailable, map[string]any{"error": "down"}, nil),
		"no results": nhtsaServer(t, http.StatusOK, map[string]any{"Count": 0}, nil),
	}
	for name, srv := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewNHTSAClient(srv.URL+"/api", time.Second, srv.Client(), nil)
			_, err := c.Decode(context.Background(), "1HGCM82633A004352")
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrUpstream)
		})
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewNHTSAClient(srv.URL, time.Second, nil, nil)
	_, err := c.Decode(context.Background(), "1HGCM82633A004352")
	assert.ErrorIs(t, err, common.ErrUpstream)
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestLRUCacheTTLAndStats(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c := NewLRUCache(10, time.Hour, WithClock(clk.now))

	c.Add("A", Vehicle{VIN: "A"})
	clk.advance(30 * time.Minute)
	c.Add("B", Vehicle{VIN: "B"})

	v, ok := c.Get("A")
	require.True(t, ok)
	assert.Equal(t, "A", v.VIN)

	clk.advance(45 * time.Minute)
	s := c.Stats()
	assert.Equal(t, 2, s.Entries)
	assert.Equal(t, 1, s.Active)
	assert.Equal(t, 1, s.Expired)
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, 10, s.MaxSize)
	assert.Equal(t, time.Hour, s.TTL)

	_, ok = c.Get("A")
	assert.False(t, ok, "expired entries miss")
	assert.Equal(t, 1, c.Len(), "expired entry removed on read")
	assert.Equal(t, uint64(1), c.Stats().Misses)

	c.Purge()
	assert.Zero(t, c.Len())
	assert.Equal(t, Stats{MaxSize: 10, TTL: time.Hour}, c.Stats())
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache(2, time.Hour)
	c.Add("A", Vehicle{VIN: "A"})
	c.Add("B", Vehicle{VIN: "B"})
	_, _ = c.Get("A")
	c.Add("C", Vehicle{VIN: "C"})

	_, okA := c.Get("A")
	_, okB := c.Get("B")
	_, okC := c.Get("C")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, 2, c.Stats().Entries)
	assert.Equal(t, 2, c.Stats().Active)
}

type countingDecoder struct {
	calls int
	err   error
}

func (d *countingDecoder) Decode(_ context.Context, vin string) (Vehicle, error) {
	d.calls++
	if d.err != nil {
		return Vehicle{}, d.err
	}
	return Vehicle{VIN: vin, Make: "HONDA"}, nil
}

func TestCachingDecoder(t *testing.T) {
	next := &countingDecoder{}
	d := NewCachingDecoder(next, NewLRUCache(5, time.Hour), nil)

	for _, in := range []string{"1hgcm82633a004352", "1HGCM8-2633A004352"} {
		v, err := d.Decode(context.Background(), in)
		require.NoError(t, err)
		assert.Equal(t, "1HGCM82633A004352", v.VIN)
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, uint64(1), d.Stats().Hits)

	_, err := d.Decode(context.Background(), "short")
	assert.ErrorIs(t, err, ErrInvalidVIN)
	assert.Equal(t, 1, next.calls)
}

func TestCachingDecoderDoesNotCacheFailures(t *testing.T) {
	next := &countingDecoder{err: errors.New("boom")}
	d := NewCachingDecoder(next, nil, nil)
	for i := 0; i < 2; i++ {
		_, err := d.Decode(context.Background(), "1HGCM82633A004352")
		require.Error(t, err)
	}
	assert.Equal(t, 2, next.calls)
	assert.Zero(t, d.Stats().Entries)
}

func TestCachingDecoderAgainstNHTSA(t *testing.T) {
	var hits int32
	srv := nhtsaServer(t, http.StatusOK, hondaResults, &hits)
	d := NewCachingDecoder(NewNHTSAClient(srv.URL+"/api", time.Second, srv.Client(), nil), NewLRUCache(5, time.Hour), nil)
	for i := 0; i < 3; i++ {
		v, err := d.Decode(context.Background(), "1HGCM82633A004352")
		require.NoError(t, err)
		assert.Equal(t, "Accord", v.Model)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestNewFromConfig(t *testing.T) {
	assert.Nil(t, NewFromConfig(common.VINDecodeConfig{Enabled: false}, nil))
	d := NewFromConfig(common.VINDecodeConfig{Enabled: true, CacheSize: 3, CacheTTL: time.Minute}, nil)
	require.NotNil(t, d)
	assert.Equal(t, 3, d.Stats().MaxSize)
}

func TestNHTSAClientRateLimit(t *testing.T) {
	var hits int32
	srv := nhtsaServer(t, http.StatusOK, hondaResults, &hits)
	c := NewNHTSAClient(srv.URL+"/api", time.Second, srv.Client(), nil, WithRateLimit(1, 1))

	_, err := c.Decode(context.Background(), "1HGCM82633A004352")
	require.NoError(t, err)

	// The next token is a second away, past this deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Decode(ctx, "1HGCM82633A004352")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestWithRateLimitDisabled(t *testing.T) {
	c := NewNHTSAClient("", time.Second, nil, nil, WithRateLimit(0, 10))
	assert.Nil(t, c.limiter)
	c = NewNHTSAClient("", time.Second, nil, nil, WithRateLimit(3, 0))
	require.NotNil(t, c.limiter)
	assert.Equal(t, 3, c.limiter.Burst())
}

func TestNewFromConfigFallsBackWhenRedisDown(t *testing.T) {
	d := NewFromConfig(common.VINDecodeConfig{
		Enabled:   true,
		CacheSize: 3,
		CacheTTL:  time.Minute,
		RedisAddr: "127.0.0.1:1",
	}, nil)
	require.NotNil(t, d)
	assert.Equal(t, 3, d.Stats().MaxSize)
}
