// Package meetsy holds the meetsy command, action and form handlers.
package meetsy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/m3rciful/meetsy/core/enrollment"
	"github.com/m3rciful/meetsy/core/forms"
	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/slackbot"
	"github.com/m3rciful/meetsy/core/slackbot/ack"
	"github.com/m3rciful/meetsy/core/slackbot/events"
	"github.com/m3rciful/meetsy/core/slackbot/format"
	"github.com/m3rciful/meetsy/core/slackbot/sender"
)

const component = "meetsy"

// ViewOpener opens a modal template for a trigger.
type ViewOpener interface {
	OpenView(ctx context.Context, template, triggerID, privateMetadata string) error
}

// Enroller enrolls a user in a channel's meetsy.
type Enroller interface {
	Enroll(ctx context.Context, channelID, userID string) enrollment.Outcome
}

// Outbox queues messages posted outside the ack.
type Outbox interface {
	PostMessage(ctx context.Context, poster sender.Poster, channelID, text string) error
}

// Deps are the collaborators the handlers need. Outbox and Poster may be nil,
// in which case create confirmations are not posted.
type Deps struct {
	Views  ViewOpener
	Enroll Enroller
	Poster sender.Poster
	Outbox Outbox
	Forms  *forms.Registry
}

// createMetadata is carried in the create modal's private_metadata.
type createMetadata struct {
	Form    string `json:"form"`
	Channel string `json:"channel"`
}

type handlers struct {
	deps Deps
}

// Register wires every meetsy route into r and registers the create schema
// in deps.Forms when it is not there yet.
func Register(r *slackbot.Router, deps Deps) error {
	if deps.Views == nil || deps.Enroll == nil || deps.Forms == nil {
		return fmt.Errorf("meetsy: views, enroll and forms are required")
	}
	if _, err := deps.Forms.Get(FormCreate); err != nil {
		if err := deps.Forms.Register(CreateSchema()); err != nil {
			return err
		}
	}

	h := &handlers{deps: deps}
	r.RegisterCommand(CommandCreate, h.create)
	r.RegisterCommand(CommandEnroll, h.enroll)
	r.RegisterAction(ActionDuration, h.selection)
	r.RegisterAction(ActionFrequency, h.selection)
	r.RegisterAction(ActionJoinType, h.selection)
	r.RegisterViewSubmission(FormCreate, h.submitCreate)
	r.RegisterViewSubmission(LegacyCallbackID, h.submitCreate)
	return nil
}

func (h *handlers) create(ctx context.Context, ev events.CommandEvent) (ack.Response, error) {
	meta, err := json.Marshal(createMetadata{Form: FormCreate, Channel: ev.ChannelID})
	if err != nil {
		return ack.Response{}, err
	}
	if err := h.deps.Views.OpenView(ctx, TemplateCreate, ev.TriggerID, string(meta)); err != nil {
		// The channel still gets the default setup when the modal cannot open.
		logger.Warn(ctx, component, "create.open_view",
			slog.String("status", "fallback"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return ack.Text(WelcomeMessage), nil
	}
	return ack.Empty(), nil
}

func (h *handlers) enroll(ctx context.Context, ev events.CommandEvent) (ack.Response, error) {
	logger.Debug(ctx, component, "enroll.request",
		slog.String("channel_name", ev.ChannelName),
		slog.String("user_name", ev.UserName),
	)
	if out := h.deps.Enroll.Enroll(ctx, ev.ChannelID, ev.UserID); !out.OK() {
		return ack.Text(EnrollFailedMessage), nil
	}
	return ack.Text(EnrolledMessage), nil
}

func (h *handlers) selection(ctx context.Context, ev events.ActionEvent) (ack.Response, error) {
	logger.Debug(ctx, component, "create.selection",
		slog.String("action", ev.ActionID),
		slog.String("value", ev.Value("selected_option.value")),
	)
	return ack.Empty(), nil
}

func (h *handlers) submitCreate(ctx context.Context, ev events.ViewSubmissionEvent) (ack.Response, error) {
	formID := ev.Metadata("form")
	if formID == "" {
		formID = FormCreate
	}
	schema, err := h.deps.Forms.Get(formID)
	if err != nil {
		return ack.Response{}, err
	}

	res := forms.Validate(schema, ev.State)
	if err := res.Err(); err != nil {
		return ack.Response{}, err
	}

	channel := ev.Metadata("channel")
	logger.Info(ctx, component, "create.submitted",
		slog.String("status", "ok"),
		slog.String("channel_id", channel),
		slog.String("duration", res.Values[BlockDuration]),
		slog.String("frequency", res.Values[BlockFrequency]),
		slog.String("join", res.Values[BlockJoin]),
	)
	h.confirm(ctx, channel, res.Values)
	return ack.Empty(), nil
}

func (h *handlers) confirm(ctx context.Context, channel string, values map[string]string) {
	if channel == "" || h.deps.Outbox == nil || h.deps.Poster == nil {
		return
	}
	text := ConfirmationText(values)
	if err := h.deps.Outbox.PostMessage(ctx, h.deps.Poster, channel, text); err != nil {
		logger.Warn(ctx, component, "create.confirm",
			slog.String("status", "fail"),
			slog.String("channel_id", channel),
			slog.String("err", err.Error()),
		)
	}
}

// ConfirmationText renders the channel notice for validated create values.
func ConfirmationText(values map[string]string) string {
	return fmt.Sprintf(confirmationFormat,
		format.Escape(values[BlockDuration]),
		format.Escape(values[BlockFrequency]),
		format.Escape(values[BlockJoin]),
	)
}
