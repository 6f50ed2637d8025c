package slackbot

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type refusingTransport struct {
	refusals int
	calls    int
	next     http.RoundTripper
}

func (f *refusingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.refusals {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return f.next.RoundTrip(req)
}

func TestRedialTransportResendsRefusedDials(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	refusing := &refusingTransport{refusals: 2, next: http.DefaultTransport}
	client := &http.Client{Transport: &redialTransport{base: refusing, redials: 2, backoff: time.Millisecond}}

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("channel=C1"))
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 3, refusing.calls)
	assert.Equal(t, []string{"channel=C1"}, bodies)
}

func TestRedialTransportGivesUp(t *testing.T) {
	refusing := &refusingTransport{refusals: 10, next: http.DefaultTransport}
	client := &http.Client{Transport: &redialTransport{base: refusing, redials: 1, backoff: time.Millisecond}}

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	assert.Error(t, err)
	assert.Equal(t, 2, refusing.calls)
}

func TestRedialTransportDoesNotResendAfterHeaderTimeout(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-time.After(300 * time.Millisecond):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	base := &http.Transport{ResponseHeaderTimeout: 50 * time.Millisecond}
	defer base.CloseIdleConnections()
	client := &http.Client{Transport: &redialTransport{base: base, redials: 2, backoff: time.Millisecond}}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat.postMessage", strings.NewReader("channel=C1&text=hi"))
	require.NoError(t, err)
	_, err = client.Do(req)
	require.Error(t, err)

	assert.Equal(t, int32(1), hits.Load())
}

func TestBuildHTTPClient(t *testing.T) {
	c := BuildHTTPClient()
	assert.Equal(t, webAPIClientTimeout, c.Timeout)
	_, ok := c.Transport.(*redialTransport)
	assert.True(t, ok)
}
