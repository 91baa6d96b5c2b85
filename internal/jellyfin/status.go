package jellyfin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cesargomez89/showmover/internal/app"
	"github.com/cesargomez89/showmover/internal/httpclient"
	"github.com/cesargomez89/showmover/internal/logger"
)

// Status is the result of probing the server and the API key.
type Status struct {
	HealthStatusCode  *int   `json:"health_status_code,omitempty"`
	LibraryStatusCode *int   `json:"library_status_code,omitempty"`
	Message           string `json:"message,omitempty"`
	Configured        bool   `json:"configured"`
	ServerReachable   bool   `json:"server_reachable"`
	AuthOK            bool   `json:"auth_ok"`
}

// CheckStatus calls health first and only validates the key once the server
// answered.
func (c *Client) CheckStatus(ctx context.Context) *Status {
	st := &Status{Configured: true}

	code, err := c.Health(ctx)
	if err != nil {
		st.Message = fmt.Sprintf("Failed to reach Jellyfin health endpoint: %v", err)
		return st
	}
	st.HealthStatusCode = &code
	if code < 200 || code > 299 {
		st.Message = fmt.Sprintf("Jellyfin health endpoint returned %d", code)
		return st
	}
	st.ServerReachable = true

	code, err = c.VerifyLibraryAccess(ctx)
	if err != nil {
		st.Message = fmt.Sprintf("Failed to call Jellyfin library endpoint: %v", err)
		return st
	}
	st.LibraryStatusCode = &code
	switch {
	case code >= 200 && code <= 299:
		st.AuthOK = true
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		st.Message = "Jellyfin API key invalid"
	default:
		st.Message = fmt.Sprintf("Unexpected status from library endpoint: %d", code)
	}
	return st
}

// Notifier builds a client from the current settings on every call, so edits
// to the Jellyfin connection apply without a restart.
type Notifier struct {
	Settings app.SettingsSource
	HTTP     *httpclient.Client
	Logger   *logger.Logger
}

func NewNotifier(cfg app.SettingsSource, hc *httpclient.Client, log *logger.Logger) *Notifier {
	if hc == nil {
		hc = httpclient.NewClient(nil, 0)
	}
	return &Notifier{Settings: cfg, HTTP: hc, Logger: log}
}

func (n *Notifier) Client() (*Client, error) {
	return New(n.Settings.Snapshot().Jellyfin, n.HTTP, n.Logger)
}

// Rescan is a no-op when Jellyfin is not configured.
func (n *Notifier) Rescan(ctx context.Context) error {
	client, err := n.Client()
	if errors.Is(err, ErrNotConfigured) {
		return nil
	}
	if err != nil {
		return err
	}
	return client.Rescan(ctx)
}
