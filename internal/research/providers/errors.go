package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// FailureCategory is the normalized failure taxonomy for provider calls.
type FailureCategory string

const (
	// FailureUnavailable indicates the provider is down or unreachable.
	FailureUnavailable FailureCategory = "unavailable"

	// FailureRateLimited indicates the provider refused for quota reasons.
	FailureRateLimited FailureCategory = "rate_limited"

	// FailureNotFound indicates the registration has no record at this source.
	FailureNotFound FailureCategory = "not_found"

	// FailureTimeout indicates the call exceeded its deadline.
	FailureTimeout FailureCategory = "timeout"

	// FailureMalformedResponse indicates the provider answered with data the
	// adapter could not interpret.
	FailureMalformedResponse FailureCategory = "malformed_response"
)

// Failure wraps a provider error with its normalized category. Only
// RateLimited and Timeout are worth a second attempt within a run.
type Failure struct {
	Category   FailureCategory
	ProviderID string
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", f.ProviderID, f.Category, f.Message, f.Err)
	}
	return fmt.Sprintf("provider %s [%s]: %s", f.ProviderID, f.Category, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure builds a categorized provider failure.
func NewFailure(category FailureCategory, providerID, message string, err error) *Failure {
	return &Failure{Category: category, ProviderID: providerID, Message: message, Err: err}
}

// CategoryOf extracts the failure category, defaulting to unavailable for
// errors that escaped categorization.
func CategoryOf(err error) FailureCategory {
	var f *Failure
	if errors.As(err, &f) {
		return f.Category
	}
	return FailureUnavailable
}

// Transient reports whether the failure is worth one retry: rate limits and
// timeouts pass, NotFound and MalformedResponse never do.
func Transient(err error) bool {
	switch CategoryOf(err) {
	case FailureRateLimited, FailureTimeout:
		return true
	default:
		return false
	}
}

// classifyHTTPError maps transport-level errors into the taxonomy. Used by
// all HTTP adapters so categorization stays consistent across sources.
func classifyHTTPError(providerID string, err error) *Failure {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewFailure(FailureTimeout, providerID, "request deadline exceeded", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return NewFailure(FailureTimeout, providerID, "network timeout", err)
	default:
		return NewFailure(FailureUnavailable, providerID, "request failed", err)
	}
}

// classifyStatus maps non-2xx responses into the taxonomy.
func classifyStatus(providerID string, status int) *Failure {
	switch {
	case status == http.StatusNotFound:
		return NewFailure(FailureNotFound, providerID, "no record for registration", nil)
	case status == http.StatusTooManyRequests:
		return NewFailure(FailureRateLimited, providerID, "rate limited", nil)
	case status >= 500:
		return NewFailure(FailureUnavailable, providerID, fmt.Sprintf("upstream status %d", status), nil)
	default:
		return NewFailure(FailureMalformedResponse, providerID, fmt.Sprintf("unexpected status %d", status), nil)
	}
}
