package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"strings"
	"time"

	"github.com/m3rciful/meetsy/core/forms"
	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/metrics"
	"github.com/m3rciful/meetsy/core/slackbot/ack"
)

const (
	kindCommand = "command"
	kindAction  = "action"
	kindView    = "view"
)

// run invokes call, converts its result into a response at the dispatch
// boundary and writes the handler.handled summary. Nothing escapes: errors
// and panics both become acks.
func run(ctx context.Context, kind, handlerName string, notFound bool, call func(context.Context) (ack.Response, error), extras ...slog.Attr) (resp ack.Response) {
	start := time.Now()
	ctx = logger.WithHandler(ctx, handlerName)

	var (
		err     error
		status  = "ok"
		outcome = "ok"
	)
	if notFound {
		status, outcome = "fallback", "not_found"
	}

	defer func() {
		if rec := recover(); rec != nil {
			metrics.HandlerPanics.Inc()
			logger.LogEvent(ctx, logger.Slack, slog.LevelError, "handler.panic",
				slog.Any("err", rec),
				slog.String("stack", string(debug.Stack())),
			)
			resp = ack.Text(FailureMessage)
			err = fmt.Errorf("panic: %v", rec)
			status, outcome = "fail", "panic"
		}
		logHandlerSummary(ctx, kind, handlerName, start, status, outcome, resp, err, extras...)
	}()

	resp, err = call(ctx)
	if err == nil {
		return resp
	}

	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		status, outcome = "invalid", "invalid"
		return ack.Errors(verr.Errors)
	}

	status, outcome = "fail", "fail"
	logger.LogEvent(ctx, logger.Slack, slog.LevelError, "handler.failed",
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		slog.String("err_code", deriveErrorCode(err)),
	)
	return ack.Text(FailureMessage)
}

func logHandlerSummary(ctx context.Context, kind, handlerName string, start time.Time, status, outcome string, resp ack.Response, err error, extras ...slog.Attr) {
	took := time.Since(start)
	metrics.ObserveDispatch(kind, outcome, took)

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.String("kind", kind),
		slog.String("ack", resp.Kind.String()),
		slog.Int64("duration_ms", logger.RoundMS(took).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", handlerName),
		)
	}
	if len(extras) > 0 {
		attrs = append(attrs, extras...)
	}
	logger.LogEvent(ctx, logger.Slack, slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		code := strings.TrimSpace(c.Code())
		if code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(strings.ReplaceAll(t.Name(), " ", "_"))
	}
	return "UNKNOWN_ERROR"
}
