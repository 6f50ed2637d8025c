package slackbot

import (
	"context"
	"log/slog"
	"time"

	"github.com/slack-go/slack"

	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/slackbot/ack"
)

// Transport converts raw Slack payloads into events, dispatches them through
// the Router and encodes the ack. Socket Mode and HTTP both go through it.
type Transport struct {
	router     *Router
	encoder    *Encoder
	ackTimeout time.Duration
}

// NewTransport wires a router and encoder. ackTimeout bounds handler time;
// zero disables the deadline.
func NewTransport(router *Router, encoder *Encoder, ackTimeout time.Duration) *Transport {
	if encoder == nil {
		encoder = NewEncoder(nil)
	}
	return &Transport{router: router, encoder: encoder, ackTimeout: ackTimeout}
}

// HandleSlash dispatches a slash command and returns its ack payload.
func (t *Transport) HandleSlash(ctx context.Context, cmd slack.SlashCommand) any {
	ctx = logger.WithMeta(ctx, metaFromCommand(cmd))
	ctx, done := t.withDeadline(ctx, "command")
	defer done()

	resp := t.router.DispatchCommand(ctx, CommandFromSlash(cmd))
	return t.encoder.Command(ctx, resp)
}

// HandleInteraction dispatches a block_actions or view_submission payload.
// Other interaction types are acknowledged and ignored.
func (t *Transport) HandleInteraction(ctx context.Context, cb slack.InteractionCallback) any {
	ctx = logger.WithMeta(ctx, metaFromCallback(cb))

	switch cb.Type {
	case slack.InteractionTypeBlockActions:
		ctx, done := t.withDeadline(ctx, "action")
		defer done()
		var last ack.Response
		for _, ev := range ActionsFromCallback(cb) {
			last = t.router.DispatchAction(ctx, ev)
		}
		return t.encoder.Action(ctx, last)
	case slack.InteractionTypeViewSubmission:
		ctx, done := t.withDeadline(ctx, "view")
		defer done()
		resp := t.router.DispatchViewSubmission(ctx, ViewFromCallback(cb))
		return t.encoder.View(ctx, resp)
	default:
		logger.LogEvent(ctx, logger.Slack, slog.LevelDebug, "interaction.skip",
			slog.String("status", "skip"),
			slog.String("type", string(cb.Type)),
		)
		return nil
	}
}

// withDeadline applies the ack timeout and logs when handling overran it.
func (t *Transport) withDeadline(ctx context.Context, kind string) (context.Context, func()) {
	if t.ackTimeout <= 0 {
		return ctx, func() {}
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, t.ackTimeout)
	return ctx, func() {
		if took := time.Since(start); took > t.ackTimeout {
			logger.LogEvent(ctx, logger.Slack, slog.LevelWarn, "ack.late",
				slog.String("status", "fail"),
				slog.String("kind", kind),
				slog.Duration("duration", logger.RoundMS(took)),
				slog.Duration("ack_timeout", t.ackTimeout),
			)
		}
		cancel()
	}
}
