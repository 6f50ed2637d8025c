package slackbot

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/slackbot/netutil"
)

const (
	webAPIDialTimeout     = 5 * time.Second
	webAPITLSHandshake    = 5 * time.Second
	webAPIIdleConnTimeout = 90 * time.Second
	webAPIHeaderTimeout   = 10 * time.Second
	webAPIClientTimeout   = 30 * time.Second
	webAPIKeepAlive       = 30 * time.Second
	webAPIRedials         = 2
	webAPIRedialBackoff   = 250 * time.Millisecond
)

// BuildHTTPClient returns the HTTP client used for Slack Web API calls.
// Every Web API method is a POST and most are not idempotent, so the
// transport only resends requests that never left the process. Slack-level
// retries (rate limits, 5xx, timeouts) belong to the sender queue.
func BuildHTTPClient() *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: webAPIDialTimeout, KeepAlive: webAPIKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       webAPIIdleConnTimeout,
		TLSHandshakeTimeout:   webAPITLSHandshake,
		ResponseHeaderTimeout: webAPIHeaderTimeout,
	}
	return &http.Client{
		Timeout:   webAPIClientTimeout,
		Transport: &redialTransport{base: base, redials: webAPIRedials, backoff: webAPIRedialBackoff},
	}
}

// redialTransport resends a request whose connection could not be
// established. Anything that failed after dialing is returned as is.
type redialTransport struct {
	base    http.RoundTripper
	redials int
	backoff time.Duration
}

func (t *redialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	for attempt := 1; err != nil && attempt <= t.redials && netutil.Unsent(err); attempt++ {
		next, ok := rewind(req)
		if !ok {
			return nil, err
		}
		logger.LogEvent(req.Context(), logger.Slack, slog.LevelDebug, "http.redial",
			slog.String("host", req.URL.Host),
			slog.Int("attempt", attempt),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		if !sleepCtx(req, t.backoff*time.Duration(attempt)) {
			return nil, req.Context().Err()
		}
		resp, err = base.RoundTrip(next)
	}
	return resp, err
}

// rewind clones req with a fresh body. Requests without GetBody can only be
// resent when they carry no body.
func rewind(req *http.Request) (*http.Request, bool) {
	next := req.Clone(req.Context())
	switch {
	case req.GetBody != nil:
		body, err := req.GetBody()
		if err != nil {
			return nil, false
		}
		next.Body = body
	case req.Body != nil && req.Body != http.NoBody:
		return nil, false
	}
	return next, true
}

func sleepCtx(req *http.Request, d time.Duration) bool {
	if d <= 0 {
		return req.Context().Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return false
	case <-timer.C:
		return true
	}
}
