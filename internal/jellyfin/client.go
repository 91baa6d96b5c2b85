// Package jellyfin talks to the media server that serves the library, so it
// can be told to rescan after shows change tier.
package jellyfin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cesargomez89/showmover/internal/constants"
	"github.com/cesargomez89/showmover/internal/httpclient"
	"github.com/cesargomez89/showmover/internal/logger"
	"github.com/cesargomez89/showmover/internal/settings"
)

var ErrNotConfigured = errors.New("jellyfin integration not configured")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected jellyfin status: %d", e.Code)
}

// Unauthorized reports whether the server rejected the API key.
func (e *StatusError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

type Client struct {
	http    *httpclient.Client
	logger  *logger.Logger
	baseURL string
	apiKey  string
}

// New returns ErrNotConfigured when either the URL or the API key is blank.
func New(cfg settings.Jellyfin, hc *httpclient.Client, log *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	apiKey := strings.TrimSpace(cfg.APIKey)
	if baseURL == "" || apiKey == "" {
		return nil, ErrNotConfigured
	}
	if hc == nil {
		hc = httpclient.NewClient(nil, 0)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Client{
		http:    hc,
		logger:  log.WithComponent("jellyfin"),
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// Rescan asks the server to refresh every library.
func (c *Client) Rescan(ctx context.Context) error {
	url := c.baseURL + "/Library/Refresh"
	c.logger.Info("Triggering Jellyfin library refresh", "endpoint", url)

	code, err := c.send(ctx, http.MethodPost, url, true)
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		c.logger.Error("Jellyfin refresh returned non-success status", "status", code)
		return &StatusError{Code: code}
	}
	return nil
}

// Health returns the status code of the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (int, error) {
	url := c.baseURL + "/health"
	c.logger.Debug("Checking Jellyfin health endpoint", "endpoint", url)
	return c.send(ctx, http.MethodGet, url, false)
}

// VerifyLibraryAccess returns the status code of an endpoint that needs a
// valid API key.
func (c *Client) VerifyLibraryAccess(ctx context.Context) (int, error) {
	url := c.baseURL + "/Library/PhysicalPaths"
	c.logger.Debug("Checking Jellyfin library access", "endpoint", url)
	return c.send(ctx, http.MethodGet, url, true)
}

func (c *Client) send(ctx context.Context, method, url string, auth bool) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if auth {
		req.Header.Set(constants.JellyfinTokenHdr, c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
