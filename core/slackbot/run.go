package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"

	coreconfig "github.com/m3rciful/meetsy/core/config"
	"github.com/m3rciful/meetsy/core/logger"
)

// RunOptions controls Run.
type RunOptions struct {
	Config    *coreconfig.Config
	Router    *Router
	Client    *slack.Client
	Templates TemplateSource
	// API is built from Client and Templates when nil.
	API *API

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	API    *API
	Router *Router
}

// Run serves Slack events in the configured mode until ctx is done.
func Run(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("slackbot: nil config provided")
	}
	if opts.Router == nil {
		return fmt.Errorf("slackbot: nil router provided")
	}
	cfg := opts.Config

	client := opts.Client
	if client == nil {
		client = NewSlackClient(cfg.Slack.BotToken, cfg.Slack.AppToken, cfg.Slack.Debug)
	}
	api := opts.API
	if api == nil {
		api = NewAPI(client, opts.Templates)
	}
	transport := NewTransport(opts.Router, NewEncoder(api), time.Duration(cfg.Slack.AckTimeoutMS)*time.Millisecond)
	rt := Runtime{API: api, Router: opts.Router}

	opts.Router.LogRoutes(ctx)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	var runErr error
	switch cfg.Slack.RunMode {
	case coreconfig.RunModeHTTP:
		runErr = runHTTP(ctx, cfg, transport)
	default:
		logger.LogEvent(ctx, logger.Slack, slog.LevelInfo, "mode", slog.String("mode", coreconfig.RunModeSocket))
		smc := socketmode.New(client, socketmode.OptionDebug(cfg.Slack.Debug))
		runErr = runSocket(ctx, smc, transport)
	}

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}
	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func runHTTP(ctx context.Context, cfg *coreconfig.Config, t *Transport) error {
	addr := net.JoinHostPort(cfg.HTTP.Listen, strconv.Itoa(cfg.HTTP.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewWebhook(t, cfg.Slack.SigningSecret).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.LogEvent(ctx, logger.Slack, slog.LevelInfo, "mode",
		slog.String("mode", coreconfig.RunModeHTTP),
		slog.String("listen", addr),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
