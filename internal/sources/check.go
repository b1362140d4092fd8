package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/worker"
)

const (
	defaultCheckWorkers  = 8
	defaultCheckAttempts = 3
)

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

// CheckerOptions configures a Checker
type CheckerOptions struct {
	HTTPClient *http.Client
	UserAgent  string
	Workers    int
	Attempts   uint
	RetryDelay time.Duration
	Limiter    *worker.Limiter
	Logger     *slog.Logger
}

// Checker probes source websites for reachability
type Checker struct {
	client    *http.Client
	userAgent string
	workers   int
	attempts  uint
	delay     time.Duration
	limiter   *worker.Limiter
	logger    *slog.Logger
}

// NewChecker creates a Checker; zero options take defaults
func NewChecker(opts CheckerOptions) *Checker {
	c := &Checker{
		client:    opts.HTTPClient,
		userAgent: opts.UserAgent,
		workers:   opts.Workers,
		attempts:  opts.Attempts,
		delay:     opts.RetryDelay,
		limiter:   opts.Limiter,
		logger:    opts.Logger,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.userAgent == "" {
		c.userAgent = model.DefaultConfig().HTTP.UserAgent
	}
	if c.workers <= 0 {
		c.workers = defaultCheckWorkers
	}
	if c.attempts == 0 {
		c.attempts = defaultCheckAttempts
	}
	if c.delay <= 0 {
		c.delay = time.Second
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

type checkResult struct {
	model.Reachability
}

func (r checkResult) GetError() error {
	if r.Error == "" {
		return nil
	}
	return errors.New(r.Error)
}

// Check probes every row's website concurrently and returns one result
// per row in row order
func (c *Checker) Check(ctx context.Context, rows []model.DataSource) []model.Reachability {
	jobs := make([]worker.Job, len(rows))
	for i, row := range rows {
		jobs[i] = worker.JobFunc(func(ctx context.Context) worker.Result {
			return checkResult{c.checkOne(ctx, row)}
		})
	}

	results := worker.Run(ctx, c.workers, jobs)

	out := make([]model.Reachability, len(rows))
	for i, res := range results {
		if res == nil {
			out[i] = model.Reachability{Source: rows[i].Name, URL: rows[i].Website, Error: "not checked: cancelled"}
			continue
		}
		out[i] = res.(checkResult).Reachability
	}
	return out
}

func (c *Checker) checkOne(ctx context.Context, row model.DataSource) model.Reachability {
	r := model.Reachability{Source: row.Name, URL: row.Website}
	if msg := checkWebsite(row.Website); msg != "" {
		r.Error = msg
		return r
	}

	err := retry.Do(
		func() error {
			r.Attempts++
			if c.limiter != nil {
				if err := c.limiter.Wait(ctx, row.Website); err != nil {
					return retry.Unrecoverable(err)
				}
			}
			code, err := c.probe(ctx, row.Website)
			r.StatusCode = code
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.logger.DebugContext(ctx, "retrying source check", "source", row.Name, "attempt", n+1, "error", err.Error())
		}),
	)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Reachable = true
	return r
}

// probe sends HEAD, falling back to GET for servers that refuse HEAD
func (c *Checker) probe(ctx context.Context, rawURL string) (int, error) {
	code, err := c.do(ctx, http.MethodHead, rawURL)
	if err == nil || (code != http.StatusMethodNotAllowed && code != http.StatusNotImplemented) {
		return code, err
	}
	return c.do(ctx, http.MethodGet, rawURL)
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, retry.Unrecoverable(errors.Wrap(err, "create request"))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, &statusError{code: resp.StatusCode}
}

func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}
