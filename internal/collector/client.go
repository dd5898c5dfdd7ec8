package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"

	"github.com/strrl/postwatch/internal/activity"
)

var errNoMirrors = errors.New("at least one feed mirror is required")

const maxFeedBytes = 8 << 20

// Client reads an actor's public activity feed from a list of mirrors.
type Client struct {
	mirrors    []string
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	logger     *logrus.Logger
}

func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	mirrors := make([]string, 0, len(cfg.Mirrors))
	for _, m := range cfg.Mirrors {
		if m = strings.TrimRight(strings.TrimSpace(m), "/"); m != "" {
			mirrors = append(mirrors, m)
		}
	}
	if len(mirrors) == 0 {
		return nil, errNoMirrors
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		mirrors:    mirrors,
		httpClient: &http.Client{Timeout: timeout},
		executor:   failsafe.With(newRetryPolicy(cfg)),
		logger:     logger,
	}, nil
}

// ShouldRetry reports whether a mirror response is worth another attempt.
// Network errors, 5xx and 429 are retried.
func ShouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return true
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

//nolint:bodyclose // *http.Response is a type parameter here
func newRetryPolicy(cfg Config) retrypolicy.RetryPolicy[*http.Response] {
	maxRetries := max(cfg.MaxRetries, 0)
	base := cfg.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	maxDelay := max(cfg.MaxDelay, base)

	return retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(base, maxDelay).
		WithMaxRetries(maxRetries).
		WithJitterFactor(0.1).
		HandleIf(ShouldRetry).
		Build()
}

// FetchRecords tries each mirror in order and returns the first successful
// feed. Records without an actor are attributed to handle.
func (c *Client) FetchRecords(ctx context.Context, handle string) ([]activity.Record, error) {
	var errs []error
	for _, mirror := range c.mirrors {
		records, err := c.fetchFromMirror(ctx, mirror, handle)
		if err == nil {
			return c.prepare(handle, records), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WithFields(logrus.Fields{
			"mirror": mirror,
			"actor":  handle,
		}).WithError(err).Warn("Mirror fetch failed")
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("all mirrors failed for %s: %w", handle, errors.Join(errs...))
}

func (c *Client) fetchFromMirror(ctx context.Context, mirror, handle string) ([]activity.Record, error) {
	endpoint := fmt.Sprintf("%s/%s.json", mirror, url.PathEscape(handle))

	var lastStatus int
	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if resp != nil {
			lastStatus = resp.StatusCode
		}
		if ShouldRetry(resp, err) && resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return resp, err
	})
	if err != nil {
		if lastStatus != 0 {
			return nil, &StatusError{Mirror: mirror, StatusCode: lastStatus}
		}
		return nil, fmt.Errorf("request to %s failed: %w", mirror, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Mirror: mirror, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read feed from %s: %w", mirror, err)
	}

	var records []activity.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse feed from %s: %w", mirror, err)
	}
	return records, nil
}

func (c *Client) prepare(handle string, records []activity.Record) []activity.Record {
	out := make([]activity.Record, 0, len(records))
	for _, r := range records {
		if r.Actor == "" {
			r.Actor = handle
		}
		if r.Kind == "" {
			r.Kind = activity.KindOriginal
		}
		if err := r.Validate(); err != nil {
			c.logger.WithField("actor", handle).WithError(err).Debug("Skipping malformed feed record")
			continue
		}
		out = append(out, r)
	}
	return out
}
