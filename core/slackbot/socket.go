package slackbot

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	"github.com/m3rciful/meetsy/core/logger"
)

// socketAcker is the part of *socketmode.Client used to answer envelopes.
type socketAcker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// runSocket consumes Socket Mode events until ctx is done. Each envelope is
// handled on its own goroutine.
func runSocket(ctx context.Context, client *socketmode.Client, t *Transport) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-client.Events:
				if !ok {
					return
				}
				go t.handleSocketEvent(ctx, client, evt)
			}
		}
	}()
	return client.RunContext(ctx)
}

func (t *Transport) handleSocketEvent(ctx context.Context, acker socketAcker, evt socketmode.Event) {
	if evt.Request != nil {
		rid := evt.Request.EnvelopeID
		if rid == "" {
			rid = logger.NewRID()
		}
		ctx = logger.WithRID(ctx, rid)
	}

	switch evt.Type {
	case socketmode.EventTypeConnecting, socketmode.EventTypeConnected:
		logger.LogEvent(ctx, logger.Slack, slog.LevelInfo, "socket."+string(evt.Type))
	case socketmode.EventTypeConnectionError, socketmode.EventTypeInvalidAuth:
		logger.LogEvent(ctx, logger.Slack, slog.LevelWarn, "socket."+string(evt.Type), slog.String("status", "fail"))
	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			t.ackUnexpected(ctx, acker, evt)
			return
		}
		ackSocket(acker, evt, t.HandleSlash(ctx, cmd))
	case socketmode.EventTypeInteractive:
		cb, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			t.ackUnexpected(ctx, acker, evt)
			return
		}
		ackSocket(acker, evt, t.HandleInteraction(ctx, cb))
	default:
		if evt.Request != nil {
			// Envelopes we do not route still need an ack to stop redelivery.
			acker.Ack(*evt.Request)
		}
	}
}

func (t *Transport) ackUnexpected(ctx context.Context, acker socketAcker, evt socketmode.Event) {
	logger.LogEvent(ctx, logger.Slack, slog.LevelWarn, "socket.unexpected_data",
		slog.String("status", "invalid"),
		slog.String("type", string(evt.Type)),
	)
	if evt.Request != nil {
		acker.Ack(*evt.Request)
	}
}

func ackSocket(acker socketAcker, evt socketmode.Event, payload any) {
	if evt.Request == nil {
		return
	}
	if payload == nil {
		acker.Ack(*evt.Request)
		return
	}
	acker.Ack(*evt.Request, payload)
}
