// Package fetch provides the production navigator: an HTTP fetcher with
// automatic retries, exponential backoff, transparent decompression, and
// structured logging. It also resolves file:// URLs for local content.
package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/jmylchreest/swfplayer/internal/backend"
)

// Fetch errors.
var (
	ErrMaxRetries       = errors.New("max retries exceeded")
	ErrResponseTooLarge = errors.New("response body exceeds maximum size limit")
)

// Default configuration values.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = 1 * time.Second
	DefaultRetryMaxDelay  = 30 * time.Second
	DefaultBackoff        = 2.0
	DefaultUserAgent      = "swfplayer/1.0"
	DefaultAcceptEncoding = "gzip, deflate, br"
)

// Config holds fetcher configuration.
type Config struct {
	// Timeout is the overall per-request timeout.
	Timeout time.Duration

	// RetryAttempts is the number of retry attempts for failed requests.
	RetryAttempts int

	// RetryDelay is the initial delay between retries.
	RetryDelay time.Duration

	// RetryMaxDelay caps the exponential backoff.
	RetryMaxDelay time.Duration

	// BackoffMultiplier grows the delay between attempts.
	BackoffMultiplier float64

	// UserAgent is sent with every request.
	UserAgent string

	// MaxResponseSize bounds the decompressed body size. 0 disables the
	// limit. The limit applies after decompression to protect against
	// compressed bombs.
	MaxResponseSize int64

	// Logger receives request/response logs.
	Logger *slog.Logger

	// BaseClient is the underlying http.Client; a default is created when
	// nil.
	BaseClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           DefaultTimeout,
		RetryAttempts:     DefaultRetryAttempts,
		RetryDelay:        DefaultRetryDelay,
		RetryMaxDelay:     DefaultRetryMaxDelay,
		BackoffMultiplier: DefaultBackoff,
		UserAgent:         DefaultUserAgent,
	}
}

// Client implements backend.Fetcher over HTTP and file URLs.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a fetcher with the given configuration.
func New(cfg Config) *Client {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	base := cfg.BaseClient
	if base == nil {
		base = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{config: cfg, client: base, logger: cfg.Logger}
}

// Fetch implements backend.Fetcher. The returned response carries the
// post-redirect URL and the fully-read, decompressed body.
func (c *Client) Fetch(ctx context.Context, req backend.Request) (*backend.Response, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing request url: %w", err)
	}
	if parsed.Scheme == "file" || parsed.Scheme == "" {
		return c.fetchFile(parsed)
	}

	var lastErr error
	delay := c.config.RetryDelay

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying fetch",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("url", req.URL),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.config.BackoffMultiplier)
			if delay > c.config.RetryMaxDelay {
				delay = c.config.RetryMaxDelay
			}
		}

		resp, err := c.doOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !retryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrMaxRetries, lastErr)
}

// statusError is an HTTP failure status surfaced as a fetch error. Script
// only ever observes the code, never headers or body.
type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http status %d", e.Code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return true
}

func (c *Client) doOnce(ctx context.Context, req backend.Request) (*backend.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if httpReq.Header.Get("Accept-Encoding") == "" {
		httpReq.Header.Set("Accept-Encoding", DefaultAcceptEncoding)
	}

	start := time.Now()
	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		c.logger.Warn("fetch failed",
			slog.String("url", req.URL),
			slog.Int("status", httpResp.StatusCode),
		)
		return nil, &statusError{Code: httpResp.StatusCode}
	}

	reader, err := c.wrapDecompression(httpResp)
	if err != nil {
		return nil, err
	}
	if c.config.MaxResponseSize > 0 {
		reader = io.LimitReader(reader, c.config.MaxResponseSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if c.config.MaxResponseSize > 0 && int64(len(data)) > c.config.MaxResponseSize {
		return nil, ErrResponseTooLarge
	}

	finalURL := req.URL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}

	c.logger.Debug("fetch completed",
		slog.String("url", finalURL),
		slog.Int("status", httpResp.StatusCode),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)

	return &backend.Response{URL: finalURL, Body: data, Status: httpResp.StatusCode}, nil
}

// wrapDecompression decodes the response body per its Content-Encoding.
// net/http handles gzip transparently only when it negotiated the header
// itself; setting Accept-Encoding explicitly puts decoding on us.
func (c *Client) wrapDecompression(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return zr, nil
	case "deflate":
		return flate.NewReader(resp.Body), nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// fetchFile resolves a file URL to local bytes. There is no retry: the file
// either exists or it does not.
func (c *Client) fetchFile(u *url.URL) (*backend.Response, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading local movie: %w", err)
	}
	return &backend.Response{URL: u.String(), Body: data, Status: http.StatusOK}, nil
}
