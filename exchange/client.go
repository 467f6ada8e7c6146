package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"order-notifier-go/metrics"
)

// timeNowMillis is swapped out in tests for deterministic nonces.
var timeNowMillis = func() int64 { return time.Now().UnixMilli() }

// defaultAttempts is used when the configured ceiling is missing.
const defaultAttempts = 5

// Call describes one logical exchange request. Prepare is invoked on
// every attempt so nonce-bearing signatures stay fresh across retries;
// Check validates the exchange's response envelope and reports
// application-level errors as *APIError.
type Call struct {
	Method  string
	Prepare func() (url string, headers map[string]string, body string)
	Check   func(raw json.RawMessage) error
}

// Client issues signed HTTP calls with exponential-backoff retry and
// content-type validation. Signing is supplied by the caller through
// Call.Prepare; this layer is signing-agnostic.
type Client struct {
	httpClient *http.Client
	limiter    RateLimiter
	log        *zap.Logger
	attempts   atomic.Int32

	// sleep is injectable so retry tests run without real delays.
	sleep func(d time.Duration)
}

// NewClient builds a Client with the given attempt ceiling. httpClient
// may point at httptest in tests; limiter may be nil.
func NewClient(httpClient *http.Client, attempts int, limiter RateLimiter, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		httpClient: httpClient,
		limiter:    limiter,
		log:        log,
		sleep:      time.Sleep,
	}
	c.SetAttempts(attempts)
	return c
}

// SetAttempts updates the retry ceiling. Safe to call while requests are
// in flight; the config watcher uses it for hot reload.
func (c *Client) SetAttempts(n int) {
	if n <= 0 {
		n = defaultAttempts
	}
	c.attempts.Store(int32(n))
}

// Do runs the call, retrying transient faults and exchange-reported
// errors with delays 1s, 2s, 4s, ... After the attempt ceiling the last
// cause is surfaced wrapped in ErrInvalidResponse.
func (c *Client) Do(ctx context.Context, call Call) (json.RawMessage, error) {
	limit := int(c.attempts.Load())
	delay := time.Second
	for attempt := 1; ; attempt++ {
		raw, err := c.once(ctx, call)
		if err == nil {
			return raw, nil
		}
		if !retryable(err) {
			return nil, err
		}
		if attempt >= limit {
			return nil, fmt.Errorf("%w after %d attempts: %w", ErrInvalidResponse, limit, err)
		}
		metrics.RequestRetries.Inc()
		c.log.Warn("request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("limit", limit),
			zap.Duration("delay", delay),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		c.sleep(delay)
		delay *= 2
	}
}

func (c *Client) once(ctx context.Context, call Call) (json.RawMessage, error) {
	if c.limiter != nil {
		c.limiter.Wait()
	}
	url, headers, body := call.Prepare()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &transportError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &transportError{cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("%w: %q", ErrWrongContentType, ct)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transportError{cause: err}
	}
	raw := json.RawMessage(payload)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: body is not valid json", ErrWrongContentType)
	}
	if call.Check != nil {
		if err := call.Check(raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

// transportError wraps connection-level failures so retryable() can tell
// them apart from data faults.
type transportError struct {
	cause error
}

func (e *transportError) Error() string { return "transport: " + e.cause.Error() }
func (e *transportError) Unwrap() error { return e.cause }

func retryable(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return true
	}
	return errors.Is(err, ErrWrongContentType)
}
