package biomart

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/cache"
	"github.com/ppiankov/genediff/internal/netutil"
	"github.com/ppiankov/genediff/internal/worker"
)

const (
	fetchAttempts = 3
	cacheSpace    = "biomart"
)

// ErrQuery is returned when the martservice answers 200 with an error
// message in place of data.
var ErrQuery = errors.New("biomart query error")

// StatusError is a non-2xx martservice response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// Options configures a Client
type Options struct {
	BaseURL    string
	UserAgent  string
	MaxBytes   int64
	HTTPClient *http.Client
	Cache      cache.Cache   // nil disables caching
	CacheTTL   time.Duration // zero uses the cache default
	Limiter    *worker.Limiter
	Robots     *netutil.RobotsChecker // nil skips robots.txt
	Logger     *slog.Logger
	RetryDelay time.Duration
}

// Client fetches query results from a BioMart martservice endpoint
type Client struct {
	baseURL    string
	userAgent  string
	maxBytes   int64
	httpClient *http.Client
	cache      cache.Cache
	cacheTTL   time.Duration
	limiter    *worker.Limiter
	robots     *netutil.RobotsChecker
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewClient creates a Client with defaults filled in
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		maxBytes:   opts.MaxBytes,
		httpClient: opts.HTTPClient,
		cache:      opts.Cache,
		cacheTTL:   opts.CacheTTL,
		limiter:    opts.Limiter,
		robots:     opts.Robots,
		logger:     opts.Logger,
		retryDelay: opts.RetryDelay,
	}
	if c.httpClient == nil {
		c.httpClient = netutil.NewClient(2*time.Minute, "", "", "", 3)
	}
	if c.cache == nil {
		c.cache = cache.Nop{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.maxBytes <= 0 {
		c.maxBytes = 256 << 20
	}
	if c.retryDelay <= 0 {
		c.retryDelay = time.Second
	}
	return c
}

// Fetch runs q and returns the raw response body. Cached bodies are
// returned without contacting the server.
func (c *Client) Fetch(ctx context.Context, q Query) ([]byte, error) {
	doc, err := q.Encode()
	if err != nil {
		return nil, err
	}

	key := cache.Key(cacheSpace, c.baseURL, doc)
	if body, ok := c.cache.Get(key); ok {
		c.logger.DebugContext(ctx, "biomart cache hit", "dataset", q.Dataset.Name)
		return body, nil
	}

	reqURL, err := c.requestURL(doc)
	if err != nil {
		return nil, err
	}

	var crawlDelay time.Duration
	if c.robots != nil {
		if crawlDelay, err = c.robots.Check(ctx, reqURL); err != nil {
			return nil, err
		}
	}

	var body []byte
	err = retry.Do(
		func() error {
			if c.limiter != nil {
				if err := c.limiter.WaitWithDelay(ctx, reqURL, crawlDelay); err != nil {
					return retry.Unrecoverable(err)
				}
			}
			var fetchErr error
			body, fetchErr = c.fetchOnce(ctx, reqURL)
			return fetchErr
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.logger.WarnContext(ctx, "retrying biomart fetch", "attempt", n+1, "error", err.Error())
		}),
	)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
		c.logger.WarnContext(ctx, "could not cache biomart response", "error", err.Error())
	}
	return body, nil
}

func (c *Client) requestURL(doc string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse martservice URL")
	}
	params := u.Query()
	params.Set("query", doc)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if int64(len(body)) > c.maxBytes {
		return nil, errors.Newf("response exceeds %d bytes", c.maxBytes)
	}

	// martservice reports bad queries in a 200 body
	trimmed := bytes.TrimSpace(body)
	if bytes.HasPrefix(trimmed, []byte("Query ERROR")) || bytes.HasPrefix(trimmed, []byte("<html")) {
		line, _, _ := strings.Cut(string(trimmed), "\n")
		return nil, errors.Wrap(ErrQuery, line)
	}

	return body, nil
}

// isRetryable reports whether err is a transient failure worth retrying
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500 || statusErr.Code == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout")
}
