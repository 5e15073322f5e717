package leaguepedia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/rosterpedia/roster-sync/internal/platform/logging"
	"github.com/rosterpedia/roster-sync/internal/platform/resilience"
)

const (
	defaultBaseURL            = "https://lol.fandom.com"
	defaultUserAgent          = "RosterSync/1.0 (team roster tracker)"
	defaultMinRequestInterval = 2500 * time.Millisecond
)

var errLeaguepediaTransient = crerr.New("leaguepedia transient failure")

// IsTransient reports whether err came from a timeout, connection failure or
// retryable upstream status, as opposed to a permanent parse/usage error.
func IsTransient(err error) bool {
	return crerr.Is(err, errLeaguepediaTransient)
}

type ClientConfig struct {
	HTTPClient         *http.Client
	BaseURL            string
	UserAgent          string
	MinRequestInterval time.Duration
	Timeout            time.Duration
	MaxRetries         int
	Logger             *logging.Logger
	CircuitBreaker     resilience.CircuitBreakerConfig
}

// Client scrapes team and player pages from a Leaguepedia-style wiki. The
// zero value is not usable; build one with NewClient and share it across all
// workers so the rate limiter state covers every outbound request to the
// host.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	maxRetries     int
	logger         *logging.Logger
	limiter        *resilience.RateLimiter
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
	now            func() time.Time
	sleepBackoff   func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	interval := cfg.MinRequestInterval
	if interval <= 0 {
		interval = defaultMinRequestInterval
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		maxRetries:     maxRetries,
		logger:         logger,
		limiter:        resilience.NewRateLimiter(interval),
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		now:            time.Now,
		sleepBackoff:   sleepBackoffTimer,
	}
}

// fetchDocument fetches one wiki page and parses it. found=false covers the
// 404 case and exhausted transient failures alike; the error is nil for a
// plain 404 and wraps errLeaguepediaTransient otherwise so callers can keep
// "page does not exist" apart from "source is unreachable".
func (c *Client) fetchDocument(ctx context.Context, path string) (*goquery.Document, bool, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "leaguepedia circuit breaker rejected request", "state", c.breaker.State())
			return nil, false, crerr.Mark(fmt.Errorf("wiki source is temporarily unavailable"), errLeaguepediaTransient)
		}
	}

	fullURL := c.baseURL + path

	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && IsTransient(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		if IsTransient(err) {
			c.logger.WarnContext(ctx, "leaguepedia request failed", "url", fullURL, "error", err)
			return nil, false, err
		}
		// Permanent non-404 statuses are worth a log line but are handled
		// like a missing page: the sync moves on.
		c.logger.WarnContext(ctx, "leaguepedia request rejected", "url", fullURL, "error", err)
		return nil, false, nil
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, false, fmt.Errorf("unexpected response payload type %T", out)
	}
	if raw == nil {
		// 404: the page simply does not exist.
		return nil, false, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		c.logger.WarnContext(ctx, "leaguepedia page failed to parse", "url", fullURL, "error", err)
		return nil, false, nil
	}

	return doc, true, nil
}

// executeRequest returns (nil, nil) for a 404 so fetchDocument can map it to
// found=false without an error.
func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Every attempt goes through the limiter, so retries keep the
		// minimum distance from the end of the previous attempt too.
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, crerr.Mark(fmt.Errorf("rate limit wait: %w", err), errLeaguepediaTransient)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.recordRequestEnd()
			lastErr = crerr.Mark(fmt.Errorf("send request: %w", err), errLeaguepediaTransient)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			_ = resp.Body.Close()
			c.recordRequestEnd()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(fmt.Errorf("read response body: %w", readErr), errLeaguepediaTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusNotFound:
				return nil, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(fmt.Errorf("wiki status=%d", resp.StatusCode), errLeaguepediaTransient)
			default:
				return nil, fmt.Errorf("wiki status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		if err := c.sleepBackoff(ctx, backoff); err != nil {
			return nil, crerr.Mark(err, errLeaguepediaTransient)
		}
	}

	if lastErr == nil {
		lastErr = crerr.Mark(fmt.Errorf("wiki request failed"), errLeaguepediaTransient)
	}
	return nil, lastErr
}

// recordRequestEnd marks the moment the upstream response finished, which is
// where the minimum request interval is measured from.
func (c *Client) recordRequestEnd() {
	if c.limiter != nil {
		c.limiter.Record()
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// normalizePageName turns a display name into a wiki page path segment.
func normalizePageName(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

func sleepBackoffTimer(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
