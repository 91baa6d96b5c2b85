package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cesargomez89/showmover/internal/constants"
)

// Client wraps an http.Client with request spacing and retries on transport
// errors, 429 and 503.
type Client struct {
	httpClient *http.Client

	minRequestInterval time.Duration
	lastRequest        time.Time
	mu                 sync.Mutex

	RetryCount int
	RetryBase  time.Duration
}

func NewClient(httpClient *http.Client, minRequestInterval time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	return &Client{
		httpClient:         httpClient,
		minRequestInterval: minRequestInterval,
		RetryCount:         constants.DefaultRetryCount,
		RetryBase:          constants.DefaultRetryBase,
	}
}

// Do sends req, retrying with a linear backoff. Requests with a body must
// set GetBody so the body can be replayed.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts := max(c.RetryCount, 1)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sleep(ctx, c.claimSlot()); err != nil {
			return nil, err
		}

		attemptReq, err := replay(ctx, req)
		if err != nil {
			return nil, err
		}

		backoff := time.Duration(attempt+1) * c.RetryBase
		resp, err := c.httpClient.Do(attemptReq)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("rate limited (status %d)", resp.StatusCode)
			if retryAfter > 0 {
				c.pushBack(retryAfter)
				backoff = max(backoff, retryAfter)
			}
		default:
			return resp, nil
		}

		if attempt == attempts-1 {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) GetUnderlyingClient() *http.Client {
	return c.httpClient
}

// claimSlot reserves the next request slot and returns how long to wait for it.
func (c *Client) claimSlot() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	nextAllowed := c.lastRequest.Add(c.minRequestInterval)
	if now.Before(nextAllowed) {
		c.lastRequest = nextAllowed
		return nextAllowed.Sub(now)
	}
	c.lastRequest = now
	return 0
}

func (c *Client) pushBack(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := time.Now().Add(d)
	if c.lastRequest.Before(next) {
		c.lastRequest = next
	}
}

func replay(ctx context.Context, req *http.Request) (*http.Request, error) {
	out := req.Clone(ctx)
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind body: %w", err)
		}
		out.Body = body
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After header and returns the duration to wait.
func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
