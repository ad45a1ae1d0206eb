package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes bounds how much of an upstream error body is kept for display.
const maxBodyBytes = 4 << 10

// APIError represents a non-success response from the helpdesk API.
type APIError struct {
	StatusCode int
	Status     string
	Method     string
	URL        string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("helpdesk API error (status %d) on %s %s", e.StatusCode, e.Method, e.URL)
	}
	return fmt.Sprintf("helpdesk API error (status %d) on %s %s: %s", e.StatusCode, e.Method, e.URL, body)
}

// Temporary reports whether the upstream failure is worth retrying by the caller.
// Nothing in this module retries; the host decides.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewAPIError builds an APIError from a response. The response body is read
// (bounded) but not closed.
func NewAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	if resp.Request != nil {
		apiErr.Method = resp.Request.Method
		if resp.Request.URL != nil {
			apiErr.URL = resp.Request.URL.Redacted()
		}
	}
	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		apiErr.Body = string(body)
	}
	return apiErr
}

// AsAPIError unwraps err looking for an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
