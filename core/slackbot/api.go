package slackbot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/slack-go/slack"

	"github.com/m3rciful/meetsy/core/logger"
)

// TemplateSource resolves a view template by name.
type TemplateSource interface {
	Modal(name string) (slack.ModalViewRequest, error)
}

// WebAPI is the subset of *slack.Client the bot calls.
type WebAPI interface {
	GetUserProfileContext(ctx context.Context, params *slack.GetUserProfileParameters) (*slack.UserProfile, error)
	OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// API is the platform client used by handlers: profile lookups, opening
// modals from named templates and posting channel messages.
type API struct {
	client    WebAPI
	templates TemplateSource
}

// NewAPI wraps a Web API client. templates may be nil when no handler opens views.
func NewAPI(client WebAPI, templates TemplateSource) *API {
	return &API{client: client, templates: templates}
}

// NewSlackClient builds the Web API client with the tuned HTTP transport.
func NewSlackClient(botToken, appToken string, debug bool) *slack.Client {
	opts := []slack.Option{
		slack.OptionHTTPClient(BuildHTTPClient()),
		slack.OptionDebug(debug),
	}
	if appToken != "" {
		opts = append(opts, slack.OptionAppLevelToken(appToken))
	}
	return slack.New(botToken, opts...)
}

// GetUserProfile returns the profile of userID.
func (a *API) GetUserProfile(ctx context.Context, userID string) (*slack.UserProfile, error) {
	start := time.Now()
	profile, err := a.client.GetUserProfileContext(ctx, &slack.GetUserProfileParameters{UserID: userID})
	logCall(ctx, "users.profile.get", start, err)
	if err != nil {
		return nil, fmt.Errorf("users.profile.get %s: %w", userID, err)
	}
	return profile, nil
}

// OpenView resolves template and opens it as a modal for triggerID.
func (a *API) OpenView(ctx context.Context, template, triggerID, privateMetadata string) error {
	view, err := a.resolve(template, privateMetadata)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = a.client.OpenViewContext(ctx, triggerID, view)
	logCall(ctx, "views.open", start, err, slog.String("template", template))
	if err != nil {
		return fmt.Errorf("views.open %s: %w", template, err)
	}
	return nil
}

// PostMessage posts text to channelID.
func (a *API) PostMessage(ctx context.Context, channelID, text string) error {
	start := time.Now()
	_, _, err := a.client.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	logCall(ctx, "chat.postMessage", start, err)
	if err != nil {
		return fmt.Errorf("chat.postMessage %s: %w", channelID, err)
	}
	return nil
}

// ResolveView returns the named template ready to be pushed or opened.
func (a *API) ResolveView(template, privateMetadata string) (slack.ModalViewRequest, error) {
	return a.resolve(template, privateMetadata)
}

func (a *API) resolve(template, privateMetadata string) (slack.ModalViewRequest, error) {
	if a.templates == nil {
		return slack.ModalViewRequest{}, fmt.Errorf("slackbot: no template source for %q", template)
	}
	view, err := a.templates.Modal(template)
	if err != nil {
		return slack.ModalViewRequest{}, err
	}
	if privateMetadata != "" {
		view.PrivateMetadata = privateMetadata
	}
	return view, nil
}

func logCall(ctx context.Context, method string, start time.Time, err error, extras ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("method", method),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	attrs = append(attrs, extras...)
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.LogEvent(ctx, logger.Slack, slog.LevelWarn, "api.call", attrs...)
		return
	}
	if logger.ShouldSampleDebug() {
		attrs = append(attrs, slog.String("status", "ok"))
		logger.LogEvent(ctx, logger.Slack, slog.LevelDebug, "api.call", attrs...)
	}
}
