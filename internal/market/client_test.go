package market

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "EUR", log.New(io.Discard))
	c.Backoff = time.Millisecond
	c.Cache = nil
	return c, &calls
}

func TestPrices(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin,usd-coin", r.URL.Query().Get("ids"))
		assert.Equal(t, "eur", r.URL.Query().Get("vs_currencies"))
		_, _ = io.WriteString(w, `{"bitcoin":{"eur":61234.123456789012},"usd-coin":{"eur":0.92}}`)
	})

	prices, err := c.Prices(context.Background(), []string{"usd-coin", "bitcoin", "bitcoin"})
	require.NoError(t, err)
	assert.True(t, prices["bitcoin"].Equal(decimal.RequireFromString("61234.123456789012")))
	assert.True(t, prices["usd-coin"].Equal(decimal.RequireFromString("0.92")))
}

func TestPricesUnknownCoin(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"bitcoin":{"eur":1}}`)
	})
	prices, err := c.Prices(context.Background(), []string{"bitcoin", "nope"})
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.NotContains(t, prices, "nope")
}

func TestPricesEmpty(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {})
	prices, err := c.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.Zero(t, calls.Load())
}

func TestHistory(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		_, _ = io.WriteString(w, `{"prices":[[1735689600000,90000.5],[1735776000000,91000]],"total_volumes":[]}`)
	})

	points, err := c.History(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Time)
	assert.True(t, points[0].Price.Equal(decimal.RequireFromString("90000.5")))
}

func TestRetriesTransientFailures(t *testing.T) {
	var n atomic.Int32
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch n.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = io.WriteString(w, `{"bitcoin":{"eur":2}}`)
		}
	})

	prices, err := c.Prices(context.Background(), []string{"bitcoin"})
	require.NoError(t, err)
	assert.True(t, prices["bitcoin"].Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGivesUpAfterRetries(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Prices(context.Background(), []string{"bitcoin"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.History(context.Background(), "nope", 1)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.Temporary())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCacheAvoidsSecondRequest(t *testing.T) {
	c, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"bitcoin":{"eur":3}}`)
	})
	c.Cache = NewMemoryCache()

	for range 2 {
		_, err := c.Prices(context.Background(), []string{"bitcoin"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestCacheFailuresAreIgnored(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"bitcoin":{"eur":4}}`)
	})
	c.Cache = brokenCache{}

	prices, err := c.Prices(context.Background(), []string{"bitcoin"})
	require.NoError(t, err)
	assert.Len(t, prices, 1)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("FINBOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FINBOARD_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr)
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get(ctx, "missing-"+t.Name())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, t.Name(), []byte(`{"a":1}`), time.Minute))
	got, ok, err := c.Get(ctx, t.Name())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(got))
}
