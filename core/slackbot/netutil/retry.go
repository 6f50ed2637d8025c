package netutil

import (
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/slack-go/slack"
)

// ShouldRetry reports whether an error from the Slack Web API is worth
// retrying: transient dial/timeout failures, rate limiting and 5xx replies.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return true
	}

	var retryable interface{ Retryable() bool }
	if errors.As(err, &retryable) {
		return retryable.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
		if nested, ok := opErr.Err.(net.Error); ok && nested.Timeout() {
			return true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return ShouldRetry(urlErr.Err)
		}
	}

	return false
}

// RetryAfter returns the delay Slack asked for on a rate-limited call.
func RetryAfter(err error) (time.Duration, bool) {
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
		return rateErr.RetryAfter, true
	}
	return 0, false
}

// Unsent reports whether err happened before the request reached the
// server: DNS resolution or dialing. Only such failures are safe to resend
// for non-idempotent Web API methods.
func Unsent(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
