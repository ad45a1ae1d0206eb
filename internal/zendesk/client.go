package zendesk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	apierrors "deskbridge/internal/errors"
)

const (
	searchPath = "/api/v2/search.json"
	createPath = "/api/v2/tickets.json"

	// DefaultTimeout applies to every request made by the client.
	DefaultTimeout = 5 * time.Second
)

// Client handles helpdesk API interactions.
type Client struct {
	BaseURL    string
	Username   string
	Password   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.HTTPClient.Timeout = d
	}
}

// WithInsecureSkipVerify disables TLS certificate verification. Some
// self-hosted helpdesks sit behind private CAs.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		c.HTTPClient.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. A client without a
// timeout is copied and given DefaultTimeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Timeout == 0 {
			cp := *hc
			cp.Timeout = DefaultTimeout
			hc = &cp
		}
		c.HTTPClient = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.Logger = logger
	}
}

// NewClient creates a new helpdesk client.
func NewClient(baseURL, username, password string, opts ...Option) *Client {
	c := &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		Password: password,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTicket creates a ticket and returns its id. problemID links an
// incident to its problem and is omitted from the payload when empty.
func (c *Client) CreateTicket(ctx context.Context, title, comment, ticketType, problemID string) (string, error) {
	payload := createRequest{
		Ticket: NewTicket{
			Type:      ticketType,
			Subject:   title,
			Comment:   comment,
			ProblemID: problemID,
		},
	}

	resp, err := c.do(ctx, http.MethodPost, createPath, nil, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result createResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Ticket.ID == 0 {
		return "", fmt.Errorf("helpdesk response carried no ticket id")
	}

	ticketID := result.Ticket.IDString()
	c.Logger.Info("created new ticket", "ticket_id", ticketID, "type", ticketType)
	return ticketID, nil
}

// SearchTickets searches tickets whose subject starts with query.
func (c *Client) SearchTickets(ctx context.Context, query string) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("type:ticket subject:%s*", query))

	resp, err := c.do(ctx, http.MethodGet, searchPath, params, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// TicketURL returns the agent-facing page of a ticket.
func (c *Client) TicketURL(ticketID string) string {
	return TicketURL(c.BaseURL, ticketID)
}

// TicketURL builds the agent-facing page of a ticket on the helpdesk at baseURL.
func TicketURL(baseURL, ticketID string) string {
	return fmt.Sprintf("%s/tickets/%s", strings.TrimRight(baseURL, "/"), ticketID)
}

// do performs an authenticated request. Relative paths are resolved against
// BaseURL. Any non-2xx status is returned as *errors.APIError; on success the
// caller owns the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (*http.Response, error) {
	target := path
	if !strings.HasPrefix(target, "http") {
		target = c.BaseURL + path
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.Username, c.Password)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.Logger.Debug("helpdesk request", "method", method, "url", req.URL.Redacted())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := apierrors.NewAPIError(resp)
		c.Logger.Warn("helpdesk request failed", "method", method, "url", apiErr.URL, "status", resp.StatusCode)
		return nil, apiErr
	}

	return resp, nil
}
