package posting

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited means the provider answered 429; handled by the source's RetryPolicy
	ErrRateLimited = errors.New("provider rate limited")
	// ErrClient is a non rate-limit 4xx; paging for the source stops
	ErrClient = errors.New("provider client error")
	// ErrTransport covers network failures, 5xx and undecodable pages
	ErrTransport = errors.New("provider transport error")
	// ErrNotConfigured means the adapter has no credentials and must not be called
	ErrNotConfigured = errors.New("provider not configured")
	// ErrDuplicate is returned by a Store when the identity key already exists
	ErrDuplicate = errors.New("posting already exists")
	// ErrInvalidRequest rejects an ingestion request before it is queued
	ErrInvalidRequest = errors.New("invalid ingestion request")
	// ErrTaskNotFound is returned for unknown task ids
	ErrTaskNotFound = errors.New("ingestion task not found")
)

// ClassifyStatus maps an HTTP status from a provider to the adapter error taxonomy
func ClassifyStatus(source string, status int, cause error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: status %d: %w: %w", source, status, ErrRateLimited, cause)
	case status >= 400 && status < 500:
		return fmt.Errorf("%s: status %d: %w: %w", source, status, ErrClient, cause)
	default:
		return fmt.Errorf("%s: %w: %w", source, ErrTransport, cause)
	}
}

// terminalReason names why a source stopped paging, for logs and metrics
func terminalReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrClient):
		return "client_error"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrTransport):
		return "transport_error"
	default:
		return "internal_error"
	}
}
