package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/slackbot/ack"
	"github.com/m3rciful/meetsy/core/slackbot/events"
)

// ErrUnregisteredCommand is returned by Router.Command for unknown names.
var ErrUnregisteredCommand = errors.New("slackbot: unregistered command")

// FailureMessage is the text acked when a handler fails or panics.
const FailureMessage = "Something went wrong while handling your request. Please try again or contact helpdesk"

type (
	// CommandHandler handles a slash command.
	CommandHandler func(ctx context.Context, ev events.CommandEvent) (ack.Response, error)
	// ActionHandler handles a block action.
	ActionHandler func(ctx context.Context, ev events.ActionEvent) (ack.Response, error)
	// ViewHandler handles a modal submission.
	ViewHandler func(ctx context.Context, ev events.ViewSubmissionEvent) (ack.Response, error)
)

// routeTable maps a routing key to a handler. Last registration wins.
type routeTable[H any] struct {
	mu     sync.RWMutex
	routes map[string]H
}

func (t *routeTable[H]) set(key string, h H) (replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.routes == nil {
		t.routes = make(map[string]H)
	}
	_, replaced = t.routes[key]
	t.routes[key] = h
	return replaced
}

func (t *routeTable[H]) get(key string) (H, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.routes[key]
	return h, ok
}

func (t *routeTable[H]) keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.routes))
	for k := range t.routes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Router dispatches inbound events to handlers registered by routing key.
// It is safe for concurrent dispatch and registration.
type Router struct {
	commands routeTable[CommandHandler]
	actions  routeTable[ActionHandler]
	views    routeTable[ViewHandler]

	fallbackMu      sync.RWMutex
	commandNotFound CommandHandler
	viewNotFound    ViewHandler
}

// NewRouter creates a Router with the default not-found fallbacks.
func NewRouter() *Router {
	return &Router{
		commandNotFound: defaultCommandNotFound,
		viewNotFound:    defaultViewNotFound,
	}
}

func defaultCommandNotFound(_ context.Context, ev events.CommandEvent) (ack.Response, error) {
	if ev.CommandName == "" {
		return ack.Text("Sorry, I don't know that command."), nil
	}
	return ack.Text(fmt.Sprintf("Sorry, I don't know the command %s.", ev.CommandName)), nil
}

func defaultViewNotFound(context.Context, events.ViewSubmissionEvent) (ack.Response, error) {
	return ack.Text("This form is no longer available."), nil
}

// NormalizeCommand trims the name and ensures the leading slash.
func NormalizeCommand(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

// RegisterCommand binds a slash command name to h.
func (r *Router) RegisterCommand(name string, h CommandHandler) {
	key := NormalizeCommand(name)
	if key == "" || h == nil {
		warnSkip("command", name, h == nil)
		return
	}
	warnReplaced("command", key, r.commands.set(key, h))
}

// RegisterAction binds a block action id to h.
func (r *Router) RegisterAction(actionID string, h ActionHandler) {
	if h == nil {
		warnSkip("action", actionID, true)
		return
	}
	warnReplaced("action", actionID, r.actions.set(actionID, h))
}

// RegisterViewSubmission binds a view callback id to h. The empty id is a
// valid key and shares the last-write-wins rule.
func (r *Router) RegisterViewSubmission(callbackID string, h ViewHandler) {
	if h == nil {
		warnSkip("view", callbackID, true)
		return
	}
	warnReplaced("view", callbackID, r.views.set(callbackID, h))
}

// SetCommandNotFound replaces the fallback for unknown commands.
func (r *Router) SetCommandNotFound(h CommandHandler) {
	if h == nil {
		return
	}
	r.fallbackMu.Lock()
	r.commandNotFound = h
	r.fallbackMu.Unlock()
}

// SetViewNotFound replaces the fallback for unknown view callback ids.
func (r *Router) SetViewNotFound(h ViewHandler) {
	if h == nil {
		return
	}
	r.fallbackMu.Lock()
	r.viewNotFound = h
	r.fallbackMu.Unlock()
}

// Command returns the handler for name.
func (r *Router) Command(name string) (CommandHandler, error) {
	key := NormalizeCommand(name)
	h, ok := r.commands.get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredCommand, key)
	}
	return h, nil
}

// DispatchCommand runs the handler registered for ev.CommandName. Unknown
// commands are answered by the command fallback.
func (r *Router) DispatchCommand(ctx context.Context, ev events.CommandEvent) ack.Response {
	ev.CommandName = NormalizeCommand(ev.CommandName)
	name := "command." + normalizeHandlerName(ev.CommandName)
	extras := []slog.Attr{slog.String("command", ev.CommandName)}

	h, err := r.Command(ev.CommandName)
	if err != nil {
		r.fallbackMu.RLock()
		fallback := r.commandNotFound
		r.fallbackMu.RUnlock()
		return run(ctx, kindCommand, name, true, func(ctx context.Context) (ack.Response, error) {
			return fallback(ctx, ev)
		}, extras...)
	}
	return run(ctx, kindCommand, name, false, func(ctx context.Context) (ack.Response, error) {
		return h(ctx, ev)
	}, extras...)
}

// DispatchAction runs the handler registered for ev.ActionID. Unknown
// actions are acknowledged with an empty response.
func (r *Router) DispatchAction(ctx context.Context, ev events.ActionEvent) ack.Response {
	name := "action." + normalizeHandlerName(ev.ActionID)
	extras := []slog.Attr{slog.String("action_id", ev.ActionID)}

	h, ok := r.actions.get(ev.ActionID)
	if !ok {
		return run(ctx, kindAction, name, true, func(context.Context) (ack.Response, error) {
			return ack.Empty(), nil
		}, extras...)
	}
	return run(ctx, kindAction, name, false, func(ctx context.Context) (ack.Response, error) {
		return h(ctx, ev)
	}, extras...)
}

// DispatchViewSubmission runs the handler registered for ev.CallbackID.
func (r *Router) DispatchViewSubmission(ctx context.Context, ev events.ViewSubmissionEvent) ack.Response {
	name := "view." + normalizeHandlerName(ev.CallbackID)
	extras := []slog.Attr{slog.String("callback_id", ev.CallbackID)}

	h, ok := r.views.get(ev.CallbackID)
	if !ok {
		r.fallbackMu.RLock()
		fallback := r.viewNotFound
		r.fallbackMu.RUnlock()
		return run(ctx, kindView, name, true, func(ctx context.Context) (ack.Response, error) {
			return fallback(ctx, ev)
		}, extras...)
	}
	return run(ctx, kindView, name, false, func(ctx context.Context) (ack.Response, error) {
		return h(ctx, ev)
	}, extras...)
}

// RouteSummary lists registered keys per table.
type RouteSummary struct {
	Commands []string
	Actions  []string
	Views    []string
}

// Routes returns the registered keys, sorted.
func (r *Router) Routes() RouteSummary {
	return RouteSummary{
		Commands: r.commands.keys(),
		Actions:  r.actions.keys(),
		Views:    r.views.keys(),
	}
}

// LogRoutes writes the wiring summary.
func (r *Router) LogRoutes(ctx context.Context) {
	s := r.Routes()
	names, truncated := logger.SummarizeStrings(s.Commands, 10)
	logger.LogEvent(ctx, logger.Wire, slog.LevelInfo, "wire.complete",
		slog.Int("commands", len(s.Commands)),
		slog.Int("actions", len(s.Actions)),
		slog.Int("views", len(s.Views)),
		slog.String("command_names", names),
		slog.Bool("truncated", truncated),
	)
}

func warnSkip(table, key string, nilHandler bool) {
	logger.LogEvent(context.Background(), logger.Wire, slog.LevelWarn, "register."+table+".skip",
		slog.String("key", key),
		slog.Bool("handler_nil", nilHandler),
	)
}

func warnReplaced(table, key string, replaced bool) {
	if !replaced {
		return
	}
	logger.LogEvent(context.Background(), logger.Wire, slog.LevelWarn, "register."+table+".overwrite",
		slog.String("key", key),
	)
}
