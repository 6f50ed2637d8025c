package slackbot

import (
	"context"
	"log/slog"

	"github.com/slack-go/slack"

	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/metrics"
	"github.com/m3rciful/meetsy/core/slackbot/ack"
)

// noticeTitle heads the modal shown for a text ack on a view submission.
const noticeTitle = "Notice"

// ViewOpener opens named templates as modals and resolves them for pushes.
type ViewOpener interface {
	OpenView(ctx context.Context, template, triggerID, privateMetadata string) error
	ResolveView(template, privateMetadata string) (slack.ModalViewRequest, error)
}

// Encoder turns ack responses into Slack acknowledgment payloads. A nil
// payload is an empty ack.
type Encoder struct {
	views ViewOpener
}

// NewEncoder creates an Encoder. views may be nil when no handler returns PushView.
func NewEncoder(views ViewOpener) *Encoder {
	return &Encoder{views: views}
}

// Command encodes the ack for a slash command.
func (e *Encoder) Command(ctx context.Context, resp ack.Response) any {
	switch resp.Kind {
	case ack.KindText:
		return ephemeral(resp.Text)
	case ack.KindErrors:
		// Commands have no inline error surface; show the first message.
		if len(resp.Errors) == 0 {
			return nil
		}
		return ephemeral(resp.Errors[0].Message)
	case ack.KindPushView:
		if e.views == nil {
			encodeFailure(ctx, "command", resp, nil)
			return ephemeral(FailureMessage)
		}
		if err := e.views.OpenView(ctx, resp.Template, resp.TriggerID, resp.PrivateMetadata); err != nil {
			encodeFailure(ctx, "command", resp, err)
			return ephemeral(FailureMessage)
		}
		return nil
	default:
		return nil
	}
}

// Action encodes the ack for a block action. Actions only acknowledge.
func (e *Encoder) Action(context.Context, ack.Response) any {
	return nil
}

// View encodes the ack for a view submission. Empty closes the modal; Text
// replaces it with a notice showing the message.
func (e *Encoder) View(ctx context.Context, resp ack.Response) any {
	switch resp.Kind {
	case ack.KindText:
		return slack.NewUpdateViewSubmissionResponse(noticeView(resp.Text))
	case ack.KindErrors:
		return slack.NewErrorsViewSubmissionResponse(resp.Errors.Map())
	case ack.KindPushView:
		if e.views == nil {
			encodeFailure(ctx, "view", resp, nil)
			return nil
		}
		view, err := e.views.ResolveView(resp.Template, resp.PrivateMetadata)
		if err != nil {
			encodeFailure(ctx, "view", resp, err)
			return nil
		}
		return slack.NewPushViewSubmissionResponse(&view)
	default:
		return nil
	}
}

// noticeView is a read-only modal carrying a single message.
func noticeView(text string) *slack.ModalViewRequest {
	return &slack.ModalViewRequest{
		Type:  slack.VTModal,
		Title: slack.NewTextBlockObject(slack.PlainTextType, noticeTitle, false, false),
		Close: slack.NewTextBlockObject(slack.PlainTextType, "Close", false, false),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		}},
	}
}

func ephemeral(text string) *slack.Msg {
	return &slack.Msg{ResponseType: slack.ResponseTypeEphemeral, Text: text}
}

func encodeFailure(ctx context.Context, kind string, resp ack.Response, err error) {
	metrics.AckEncodeFailures.WithLabelValues(kind).Inc()
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.String("kind", kind),
		slog.String("ack", resp.Kind.String()),
		slog.String("template", resp.Template),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	logger.LogEvent(ctx, logger.Slack, slog.LevelError, "ack.encode_failed", attrs...)
}
