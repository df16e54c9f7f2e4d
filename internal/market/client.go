// Package market fetches crypto prices from a CoinGecko-compatible API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.Path, e.Code, http.StatusText(e.Code))
}

// Temporary reports whether the request may succeed if retried.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// PricePoint is one sample of a price history.
type PricePoint struct {
	Time  time.Time
	Price decimal.Decimal
}

// Client queries market data. The zero Retries means a single attempt.
type Client struct {
	BaseURL    string
	VsCurrency string
	HTTP       *http.Client
	Retries    int
	Backoff    time.Duration // first retry delay, doubled after each attempt
	Cache      Cache         // optional
	CacheTTL   time.Duration
	Logger     *log.Logger
}

// NewClient returns a Client with three attempts starting at 500ms backoff
// and an in-memory cache.
func NewClient(baseURL, vsCurrency string, logger *log.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		VsCurrency: strings.ToLower(vsCurrency),
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		Retries:    3,
		Backoff:    500 * time.Millisecond,
		Cache:      NewMemoryCache(),
		CacheTTL:   5 * time.Minute,
		Logger:     logger,
	}
}

// Prices returns the current price of each coin. Coins the API does not
// know are absent from the map.
func (c *Client) Prices(ctx context.Context, coinIDs []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(coinIDs))
	if len(coinIDs) == 0 {
		return prices, nil
	}
	ids := slices.Clone(coinIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", c.VsCurrency)
	doc, err := c.getJSON(ctx, "/simple/price", q)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		v, err := jsonpath.Get(fmt.Sprintf("$[%q][%q]", id, c.VsCurrency), doc)
		if err != nil {
			c.Logger.Debug("no price", "coin", id, "error", err)
			continue
		}
		p, err := toDecimal(v)
		if err != nil {
			return nil, fmt.Errorf("price of %s: %w", id, err)
		}
		prices[id] = p
	}
	return prices, nil
}

// History returns the price series of a coin over the last days days.
func (c *Client) History(ctx context.Context, coinID string, days int) ([]PricePoint, error) {
	q := url.Values{}
	q.Set("vs_currency", c.VsCurrency)
	q.Set("days", fmt.Sprint(days))
	doc, err := c.getJSON(ctx, "/coins/"+url.PathEscape(coinID)+"/market_chart", q)
	if err != nil {
		return nil, err
	}

	v, err := jsonpath.Get("$.prices", doc)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", coinID, err)
	}
	samples, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("history of %s: prices is %T, not a list", coinID, v)
	}
	points := make([]PricePoint, 0, len(samples))
	for i, s := range samples {
		pair, ok := s.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("history of %s: sample %d is malformed", coinID, i)
		}
		ms, err := toDecimal(pair[0])
		if err != nil {
			return nil, fmt.Errorf("history of %s: sample %d time: %w", coinID, i, err)
		}
		price, err := toDecimal(pair[1])
		if err != nil {
			return nil, fmt.Errorf("history of %s: sample %d price: %w", coinID, i, err)
		}
		points = append(points, PricePoint{Time: time.UnixMilli(ms.IntPart()).UTC(), Price: price})
	}
	return points, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	n, ok := v.(json.Number)
	if !ok {
		return decimal.Zero, fmt.Errorf("%v is not a number", v)
	}
	return decimal.NewFromString(n.String())
}

// getJSON fetches path and decodes it with numbers kept as json.Number so
// prices keep every digit.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values) (any, error) {
	key := path + "?" + q.Encode()

	var body []byte
	if c.Cache != nil {
		cached, ok, err := c.Cache.Get(ctx, key)
		if err != nil {
			c.Logger.Warn("market cache read failed", "key", key, "error", err)
		}
		if ok {
			body = cached
		}
	}
	if body == nil {
		var err error
		if body, err = c.fetch(ctx, key); err != nil {
			return nil, err
		}
		if c.Cache != nil {
			if err := c.Cache.Set(ctx, key, body, c.CacheTTL); err != nil {
				c.Logger.Warn("market cache write failed", "key", key, "error", err)
			}
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return doc, nil
}

// fetch GETs key, retrying network errors, 429 and 5xx with exponential
// backoff.
func (c *Client) fetch(ctx context.Context, key string) ([]byte, error) {
	attempts := max(c.Retries, 1)
	delay := c.Backoff

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.get(ctx, key)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == attempts {
			break
		}
		c.Logger.Debug("retrying market request", "path", key, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("market data unavailable after %d attempts: %w", attempts, lastErr)
}

func (c *Client) get(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+key, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Path: strings.SplitN(key, "?", 2)[0]}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
