package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("channel_not_found"), false},
		{"rate limited", &slack.RateLimitedError{RetryAfter: time.Second}, true},
		{"wrapped rate limited", fmt.Errorf("post: %w", &slack.RateLimitedError{RetryAfter: time.Second}), true},
		{"server error", slack.StatusCodeError{Code: 503, Status: "503 Service Unavailable"}, true},
		{"client error", slack.StatusCodeError{Code: 404, Status: "404 Not Found"}, false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"url timeout", &url.Error{Op: "Post", URL: "https://slack.com/api", Err: timeoutErr{}}, true},
		{"canceled", context.Canceled, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}

func TestRetryAfter(t *testing.T) {
	d, ok := RetryAfter(fmt.Errorf("x: %w", &slack.RateLimitedError{RetryAfter: 3 * time.Second}))
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	_, ok = RetryAfter(errors.New("nope"))
	assert.False(t, ok)
}

func TestUnsent(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dial refused", &url.Error{Op: "Post", URL: "https://slack.com/api", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, true},
		{"dns", &net.DNSError{Err: "no such host", Name: "slack.com"}, true},
		{"read after write", &net.OpError{Op: "read", Err: errors.New("connection reset by peer")}, false},
		{"header timeout", &url.Error{Op: "Post", URL: "https://slack.com/api", Err: timeoutErr{}}, false},
		{"rate limited", &slack.RateLimitedError{RetryAfter: time.Second}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Unsent(tc.err))
		})
	}
}
