// Package fetch is the outbound HTTP gateway shared by every upstream source.
// Failures never surface as errors to callers: a request either produces a
// usable body or reports absence, and the caller applies its own fallback.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/metrics"
	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/pkg/log"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config bundles timeouts, payload limits and retry settings.
type Config struct {
	// JSONTimeout is the hard ceiling for a JSON request, retries included.
	JSONTimeout time.Duration
	// BytesTimeout is the hard ceiling for a raw byte download.
	BytesTimeout time.Duration
	// MaxBytes caps any response body.
	MaxBytes int64
	Backoff  BackoffConfig
}

// DefaultConfig returns the limits used in production.
func DefaultConfig() Config {
	return Config{
		JSONTimeout:  15 * time.Second,
		BytesTimeout: 60 * time.Second,
		MaxBytes:     32 << 20,
		Backoff: BackoffConfig{
			MaxRetries:      1,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errTooLarge     = errors.New("response body exceeds limit")
	errNoHTTPClient = errors.New("http client not configured")
)

// Gateway issues timed requests through a shared client with one circuit
// breaker per upstream host.
type Gateway struct {
	client *http.Client
	cfg    Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a Gateway. Zero-valued fields in cfg fall back to DefaultConfig.
func New(client *http.Client, cfg Config) *Gateway {
	def := DefaultConfig()
	if cfg.JSONTimeout <= 0 {
		cfg.JSONTimeout = def.JSONTimeout
	}
	if cfg.BytesTimeout <= 0 {
		cfg.BytesTimeout = def.BytesTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = def.MaxBytes
	}
	if cfg.Backoff.InitialInterval <= 0 {
		cfg.Backoff = def.Backoff
	}

	return &Gateway{
		client:   client,
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// GetJSON fetches rawURL and decodes the body into T. The second return value
// is false when the upstream is unavailable for any reason.
func GetJSON[T any](ctx context.Context, g *Gateway, rawURL string, headers map[string]string) (T, bool) {
	const op = "fetch/gateway/GetJSON"

	var out T
	body, ok := g.get(ctx, rawURL, headers, g.cfg.JSONTimeout)
	if !ok {
		return out, false
	}

	if err := json.Unmarshal(body, &out); err != nil {
		g.absent(ctx, op, rawURL, "decode", err)
		return out, false
	}

	return out, true
}

// FetchBytes downloads rawURL. Empty bodies count as absent.
func (g *Gateway) FetchBytes(ctx context.Context, rawURL string, headers map[string]string) ([]byte, bool) {
	const op = "fetch/gateway/FetchBytes"

	body, ok := g.get(ctx, rawURL, headers, g.cfg.BytesTimeout)
	if !ok {
		return nil, false
	}
	if len(body) == 0 {
		g.absent(ctx, op, rawURL, "empty", nil)
		return nil, false
	}

	return body, true
}

func (g *Gateway) get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) ([]byte, bool) {
	const op = "fetch/gateway/get"

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u, err := url.Parse(rawURL)
	if err != nil {
		g.absent(ctx, op, rawURL, "bad_url", err)
		return nil, false
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	}

	body, err := g.doWithResilience(ctx, g.breaker(u.Host), buildRequest)
	if err != nil {
		g.absent(ctx, op, rawURL, reason(err), err)
		return nil, false
	}

	return body, true
}

func (g *Gateway) breaker(host string) *gobreaker.CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[host]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:         host,
			MaxRequests:  5,
			Interval:     1 * time.Minute,
			Timeout:      2 * time.Minute,
			IsSuccessful: hostHealthy,
		})
		g.breakers[host] = cb
	}
	return cb
}

// hostHealthy reports whether err leaves the host's breaker untouched.
// Missing resources, oversized bodies and caller cancellations say nothing
// about the host being down.
func hostHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, errUnexpected) ||
		errors.Is(err, errTooLarge) ||
		errors.Is(err, context.Canceled)
}

// doWithResilience executes the request with retries, exponential backoff and
// a circuit breaker. Only transport errors, 429 and 5xx are retried.
func (g *Gateway) doWithResilience(
	ctx context.Context,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) ([]byte, error) {
	if g.client == nil {
		return nil, errNoHTTPClient
	}

	backoff := g.cfg.Backoff
	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := g.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, errRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			data, readErr := io.ReadAll(io.LimitReader(resp.Body, g.cfg.MaxBytes+1))
			if readErr != nil {
				return nil, readErr
			}
			if int64(len(data)) > g.cfg.MaxBytes {
				return nil, errTooLarge
			}
			return data, nil
		})

		if err == nil {
			data, ok := result.([]byte)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return data, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if !retryable(ctx, err) || attempt >= backoff.MaxRetries {
			return nil, err
		}

		delay := backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > backoff.MaxInterval && backoff.MaxInterval > 0 {
			delay = backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, errUnexpected) || errors.Is(err, errTooLarge) {
		return false
	}
	return true
}

func reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, errCircuitOpen):
		return "circuit_open"
	case errors.Is(err, errRateLimited):
		return "rate_limited"
	case errors.Is(err, errServerError), errors.Is(err, errUnexpected):
		return "status"
	case errors.Is(err, errTooLarge):
		return "too_large"
	default:
		return "transport"
	}
}

// absent logs and counts a degraded fetch. Query strings are dropped from the
// logged URL because they carry API keys.
func (g *Gateway) absent(ctx context.Context, op, rawURL, why string, err error) {
	host, path := rawURL, ""
	if u, perr := url.Parse(rawURL); perr == nil {
		host, path = u.Host, u.Path
	}

	metrics.UpstreamAbsent.WithLabelValues(host, why).Inc()

	attrs := []any{
		slog.String("op", op),
		slog.String("host", host),
		slog.String("path", path),
		slog.String("reason", why),
	}
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	log.From(ctx).Warn("upstream_absent", attrs...)
}
