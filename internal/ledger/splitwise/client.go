// Package splitwise implements the ledger.Source port against the
// Splitwise REST API.
package splitwise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ledgerdash/internal/ledger"
)

const defaultBaseURL = "https://secure.splitwise.com/api/v3.0"

// Config holds client settings. APIKey is required.
type Config struct {
	APIKey string

	// GroupID restricts the fetch to one group; 0 fetches across all
	// groups. Cross-group fetches can return the same settlement in
	// several group views, which the normalizer's id dedup collapses.
	GroupID int64

	// BaseURL overrides the API endpoint, for tests.
	BaseURL string

	Timeout time.Duration
}

// Client fetches expense pages from the Splitwise API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a Splitwise client.
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("splitwise client: %w", ledger.ErrAuth)
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: newHTTPClient(config.Timeout),
	}, nil
}

// newHTTPClient builds a pooled HTTP client with per-call timeouts
// suited to a long sequence of small API requests.
func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// expensesResponse is the envelope around one page of entries.
type expensesResponse struct {
	Expenses []json.RawMessage `json:"expenses"`
}

// FetchPage implements ledger.Source.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) ([]json.RawMessage, bool, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	if c.config.GroupID != 0 {
		q.Set("group_id", strconv.FormatInt(c.config.GroupID, 10))
	}

	endpoint := c.config.BaseURL + "/get_expenses?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, false, &ledger.TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("get_expenses status %d: %w", resp.StatusCode, ledger.ErrAuth)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, false, &ledger.TransientError{Err: fmt.Errorf("get_expenses status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("get_expenses unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, &ledger.TransientError{Err: fmt.Errorf("read response: %w", err)}
	}

	var page expensesResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false, fmt.Errorf("decode get_expenses response: %w", err)
	}

	return page.Expenses, len(page.Expenses) == limit, nil
}
