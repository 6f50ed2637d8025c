package slackbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/slack-go/slack"
	"github.com/tidwall/gjson"

	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/metrics"
)

const (
	// CommandsPath receives form-encoded slash commands.
	CommandsPath = "/slack/commands"
	// InteractionsPath receives interaction payloads in the "payload" form field.
	InteractionsPath = "/slack/interactions"

	maxBodyBytes = 1 << 20
)

var errBadSignature = errors.New("slackbot: bad request signature")

// Webhook serves the HTTP Events endpoints. Every request is verified with
// the signing secret before it is parsed.
type Webhook struct {
	transport     *Transport
	signingSecret string
}

// NewWebhook creates the HTTP handler set.
func NewWebhook(t *Transport, signingSecret string) *Webhook {
	return &Webhook{transport: t, signingSecret: signingSecret}
}

// Handler returns a mux with both Slack endpoints plus /metrics and /healthz.
func (w *Webhook) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(CommandsPath, w.serveCommand)
	mux.HandleFunc(InteractionsPath, w.serveInteraction)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	return mux
}

func (w *Webhook) serveCommand(rw http.ResponseWriter, r *http.Request) {
	ctx := logger.WithRID(r.Context(), logger.NewRID())
	body, ok := w.readVerified(ctx, rw, r)
	if !ok {
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		badRequest(ctx, rw, "command", err)
		return
	}
	writeAck(ctx, rw, w.transport.HandleSlash(ctx, cmd))
}

func (w *Webhook) serveInteraction(rw http.ResponseWriter, r *http.Request) {
	ctx := logger.WithRID(r.Context(), logger.NewRID())
	body, ok := w.readVerified(ctx, rw, r)
	if !ok {
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		badRequest(ctx, rw, "interaction", err)
		return
	}
	raw := form.Get("payload")
	if !gjson.Valid(raw) {
		badRequest(ctx, rw, "interaction", errors.New("payload is not JSON"))
		return
	}
	if typ := gjson.Get(raw, "type").String(); typ != string(slack.InteractionTypeBlockActions) && typ != string(slack.InteractionTypeViewSubmission) {
		logger.LogEvent(ctx, logger.Slack, slog.LevelDebug, "interaction.skip",
			slog.String("status", "skip"),
			slog.String("type", typ),
		)
		rw.WriteHeader(http.StatusOK)
		return
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		badRequest(ctx, rw, "interaction", err)
		return
	}
	writeAck(ctx, rw, w.transport.HandleInteraction(ctx, cb))
}

func (w *Webhook) readVerified(ctx context.Context, rw http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		badRequest(ctx, rw, "read", err)
		return nil, false
	}
	if err := w.verify(r.Header, body); err != nil {
		logger.LogEvent(ctx, logger.Slack, slog.LevelWarn, "webhook.unauthorized",
			slog.String("status", "invalid"),
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()),
		)
		rw.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}
	return body, true
}

func (w *Webhook) verify(header http.Header, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, w.signingSecret)
	if err != nil {
		return errors.Join(errBadSignature, err)
	}
	if _, err := sv.Write(body); err != nil {
		return errors.Join(errBadSignature, err)
	}
	if err := sv.Ensure(); err != nil {
		return errors.Join(errBadSignature, err)
	}
	return nil
}

func badRequest(ctx context.Context, rw http.ResponseWriter, what string, err error) {
	logger.LogEvent(ctx, logger.Slack, slog.LevelWarn, "webhook.bad_request",
		slog.String("status", "invalid"),
		slog.String("what", what),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	rw.WriteHeader(http.StatusBadRequest)
}

func writeAck(ctx context.Context, rw http.ResponseWriter, payload any) {
	if payload == nil {
		rw.WriteHeader(http.StatusOK)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.LogEvent(ctx, logger.Slack, slog.LevelError, "ack.marshal_failed", slog.String("err", err.Error()))
		rw.WriteHeader(http.StatusOK)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write(data)
}
