package main

import (
	"context"
	"log"
	"log/slog"
	"time"

	"github.com/m3rciful/meetsy/core/bootstrap"
	corecmd "github.com/m3rciful/meetsy/core/cmd"
	coreconfig "github.com/m3rciful/meetsy/core/config"
	"github.com/m3rciful/meetsy/core/enrollment"
	"github.com/m3rciful/meetsy/core/forms"
	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/meetsy"
	"github.com/m3rciful/meetsy/core/metrics"
	"github.com/m3rciful/meetsy/core/slackbot"
	"github.com/m3rciful/meetsy/core/slackbot/sender"
)

type app struct {
	cfg    *coreconfig.Config
	infra  *bootstrap.Result
	router *slackbot.Router
	sender *sender.Dispatcher
}

func main() {
	if err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		Bootstrap:         newApp,
	}); err != nil {
		log.Fatal(err)
	}
}

func newApp(ctx context.Context, cfg *coreconfig.Config) (corecmd.SlackApp, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:  cfg,
		Modules: bootstrap.Modules{Schemas: []forms.Schema{meetsy.CreateSchema()}},
	})
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		infra:  infra,
		router: slackbot.NewRouter(),
		sender: sender.NewDispatcher(sender.Options{
			QueueSize:    cfg.Sender.QueueSize,
			Workers:      cfg.Sender.Workers,
			MaxRetries:   cfg.Sender.MaxRetries,
			RetryBackoff: time.Duration(cfg.Sender.RetryBackoffMS) * time.Millisecond,
		}),
	}, nil
}

func (a *app) SlackRunOptions() (slackbot.RunOptions, error) {
	client := slackbot.NewSlackClient(a.cfg.Slack.BotToken, a.cfg.Slack.AppToken, a.cfg.Slack.Debug)
	api := slackbot.NewAPI(client, a.infra.Templates)

	err := meetsy.Register(a.router, meetsy.Deps{
		Views:  api,
		Enroll: enrollment.NewService(api, a.infra.Store),
		Poster: api,
		Outbox: a.sender,
		Forms:  a.infra.Forms,
	})
	if err != nil {
		return slackbot.RunOptions{}, err
	}

	return slackbot.RunOptions{
		Config:    a.cfg,
		Router:    a.router,
		Client:    client,
		Templates: a.infra.Templates,
		API:       api,
		OnStart:   a.start,
		OnStop:    a.stop,
	}, nil
}

func (a *app) start(ctx context.Context, _ slackbot.Runtime) error {
	// In http mode /metrics is served by the webhook listener.
	if a.cfg.Slack.RunMode == coreconfig.RunModeHTTP {
		return nil
	}
	go func() {
		if err := metrics.Serve(ctx, a.cfg.Metrics.Listen); err != nil {
			logger.Error(ctx, "app", "metrics.failed", slog.String("err", err.Error()))
		}
	}()
	return nil
}

func (a *app) stop(ctx context.Context, _ slackbot.Runtime) error {
	err := a.Close()
	if errs := a.sender.ErrorCount(); errs > 0 {
		logger.Warn(ctx, "app", "sender.errors", slog.Uint64("count", errs))
	}
	return err
}

// Close drains the sender and closes the database.
func (a *app) Close() error {
	a.sender.Close()
	return a.infra.Close()
}
