package slackbot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/m3rciful/meetsy/core/slackbot/ack"
	"github.com/m3rciful/meetsy/core/slackbot/events"
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func signedRequest(t *testing.T, path, body, secret string) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	_, err := mac.Write([]byte("v0:" + ts + ":" + body))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func newTestWebhook() http.Handler {
	r := NewRouter()
	r.RegisterCommand("/meetsy-enroll", func(_ context.Context, ev events.CommandEvent) (ack.Response, error) {
		return ack.Text("enrolled " + ev.UserID + " in " + ev.ChannelID), nil
	})
	r.RegisterViewSubmission("meetsy-create", func(context.Context, events.ViewSubmissionEvent) (ack.Response, error) {
		return ack.Empty(), nil
	})
	return NewWebhook(NewTransport(r, NewEncoder(&fakeOpener{}), time.Second), testSecret).Handler()
}

func TestWebhookCommand(t *testing.T) {
	form := url.Values{
		"command":    {"/meetsy-enroll"},
		"user_id":    {"U1"},
		"channel_id": {"C1"},
		"trigger_id": {"trig"},
	}.Encode()

	rec := httptest.NewRecorder()
	newTestWebhook().ServeHTTP(rec, signedRequest(t, CommandsPath, form, testSecret))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "enrolled U1 in C1", gjson.Get(rec.Body.String(), "text").String())
	assert.Equal(t, "ephemeral", gjson.Get(rec.Body.String(), "response_type").String())
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestWebhook().ServeHTTP(rec, signedRequest(t, CommandsPath, "command=%2Fmeetsy-enroll", "wrong-secret"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestWebhook().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, CommandsPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookInteraction(t *testing.T) {
	body := url.Values{"payload": {viewSubmissionJSON}}.Encode()
	rec := httptest.NewRecorder()
	newTestWebhook().ServeHTTP(rec, signedRequest(t, InteractionsPath, body, testSecret))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestWebhookInteractionSkipsOtherTypes(t *testing.T) {
	body := url.Values{"payload": {`{"type":"shortcut","callback_id":"x"}`}}.Encode()
	rec := httptest.NewRecorder()
	newTestWebhook().ServeHTTP(rec, signedRequest(t, InteractionsPath, body, testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookInteractionBadPayload(t *testing.T) {
	body := url.Values{"payload": {"not json"}}.Encode()
	rec := httptest.NewRecorder()
	newTestWebhook().ServeHTTP(rec, signedRequest(t, InteractionsPath, body, testSecret))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestWebhook().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
