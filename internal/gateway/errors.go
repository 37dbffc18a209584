package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
)

var (
	// ErrNotFound signals that the requested repository or user does not exist.
	// Callers skip the item and continue.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized signals missing or invalid credentials. Fatal for the
	// whole run, since every later request would fail the same way.
	ErrUnauthorized = errors.New("bad credentials")
)

// RateLimitError signals that the API request quota is exhausted. It is
// distinct from other HTTP failures so that callers can stop issuing
// requests and resume after ResetAt. It is never retried automatically.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("API rate limit exhausted, resets at %s", e.ResetAt.UTC().Format(time.RFC3339))
}

// mapAPIError translates go-github errors into the gateway taxonomy,
// keeping the failed operation and target in the message.
func mapAPIError(op, target string, err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%s %s: %w", op, target, &RateLimitError{ResetAt: rateErr.Rate.Reset.Time})
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		resetAt := time.Now()
		if abuseErr.RetryAfter != nil {
			resetAt = resetAt.Add(*abuseErr.RetryAfter)
		}
		return fmt.Errorf("%s %s: %w", op, target, &RateLimitError{ResetAt: resetAt})
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s %s: %w", op, target, ErrNotFound)
		case http.StatusUnauthorized:
			return fmt.Errorf("%s %s: %w", op, target, ErrUnauthorized)
		}
	}
	return fmt.Errorf("%s %s: %w", op, target, err)
}
