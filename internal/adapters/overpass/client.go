package overpass

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"safeher_travel/internal/adapters/observability"
	"safeher_travel/internal/domain"
)

const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

type Client struct {
	endpoints []string
	hc        *http.Client
	rl        *rate.Limiter
}

// New builds a client over one or more interpreter mirrors, tried in order.
func New(endpoints []string, rps int) (*Client, error) {
	var eps []string
	for _, e := range endpoints {
		if e = strings.TrimSpace(e); e != "" {
			eps = append(eps, e)
		}
	}
	if len(eps) == 0 {
		return nil, fmt.Errorf("at least one Overpass endpoint is required")
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		endpoints: eps,
		hc:        &http.Client{Timeout: 30 * time.Second},
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

// SearchPOIs returns raw OSM elements (nodes and ways with centres) of the given kind.
func (c *Client) SearchPOIs(ctx context.Context, kind domain.ResourceKind, lat, lng float64, radiusM int) ([]map[string]any, error) {
	q, err := Query(kind, lat, lng, radiusM)
	if err != nil {
		return nil, err
	}
	var out struct {
		Elements []map[string]any `json:"elements"`
	}
	if err := c.postFirst(ctx, q, &out); err != nil {
		return nil, err
	}
	return out.Elements, nil
}

// Query renders the Overpass QL for a resource kind around a point.
func Query(kind domain.ResourceKind, lat, lng float64, radiusM int) (string, error) {
	if radiusM <= 0 {
		radiusM = 5000
	}
	around := fmt.Sprintf("(around:%d,%s,%s)", radiusM, ff(lat), ff(lng))
	var filter string
	switch kind {
	case domain.KindHotel:
		filter = fmt.Sprintf(`(node["tourism"="hotel"]%[1]s; way["tourism"="hotel"]%[1]s;);`, around)
	case domain.KindPolice:
		filter = fmt.Sprintf(`(node["amenity"="police"]%[1]s; way["amenity"="police"]%[1]s;);`, around)
	case domain.KindHospital:
		filter = fmt.Sprintf(`(node["amenity"="hospital"]%[1]s; node["amenity"="clinic"]%[1]s; way["amenity"="hospital"]%[1]s;);`, around)
	default:
		return "", fmt.Errorf("overpass: unsupported kind %q", kind)
	}
	return "[out:json][timeout:25];\n" + filter + "\nout body center;", nil
}

func ff(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// ---- Internals ----

var (
	ErrNotFound     = errors.New("overpass: not found")
	ErrUnauthorized = errors.New("overpass: unauthorized")
	ErrForbidden    = errors.New("overpass: forbidden")
	ErrUnavailable  = errors.New("overpass: unavailable")
)

func (c *Client) postFirst(ctx context.Context, query string, out any) error {
	var last error
	for _, ep := range c.endpoints {
		if err := c.post(ctx, ep, query, out); err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
				last = err
				continue // try next mirror
			}
			return err
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("no Overpass endpoint succeeded")
}

// post sends a query with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) post(ctx context.Context, endpoint, query string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{"data": {query}}.Encode()
	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "safeher-travel/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("overpass", "interpreter", 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("overpass", "interpreter", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", ErrUnavailable, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
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

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
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

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
