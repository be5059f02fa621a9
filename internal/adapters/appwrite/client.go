// Package appwrite is a thin REST client for an Appwrite backend,
// covering the two surfaces this service needs: document queries and
// account sessions.
package appwrite

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"restate_api/internal/adapters/observability"
	"restate_api/internal/domain"
)

const sessionHeader = "X-Appwrite-Session"

type Client struct {
	base    string
	project string
	key     string
	hc      *http.Client
	rl      *rate.Limiter
}

func New(base, project, key string, rps int) (*Client, error) {
	if project == "" {
		return nil, fmt.Errorf("appwrite project id is required")
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		project: project,
		key:     key,
		hc:      &http.Client{Timeout: 20 * time.Second},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Database binds the client to one database, yielding a domain.DocumentStore.
func (c *Client) Database(id string) *Store { return &Store{c: c, db: id} }

// Account yields the domain.Identity surface.
func (c *Client) Account() *Account { return &Account{c: c} }

// do performs one API call with client-side rate limiting and retries on
// 429/transient 5xx, honoring Retry-After. Statuses 404/401/403 map to the
// domain sentinels.
func (c *Client) do(ctx context.Context, method, path string, session string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	url := c.base + path
	var lastErr error
	for attempt := 0; attempt < 4; attempt++ {
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rdr)
		if err != nil {
			return err
		}
		req.Header.Set("X-Appwrite-Project", c.project)
		if c.key != "" {
			req.Header.Set("X-Appwrite-Key", c.key)
		}
		if session != "" {
			req.Header.Set(sessionHeader, session)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if attempt < 3 && sleepCtx(ctx, backoff(attempt)) {
				continue
			}
			return lastErr
		}
		observability.ObserveExternal("appwrite", path, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated:
			var derr error
			if out != nil {
				derr = json.NewDecoder(resp.Body).Decode(out)
			}
			resp.Body.Close()
			return derr

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(attempt)
			}
			lastErr = fmt.Errorf("appwrite %d", resp.StatusCode)
			if attempt < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("appwrite status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles per attempt (200ms, 400ms, ...) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
