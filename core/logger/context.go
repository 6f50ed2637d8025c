package logger

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

type ctxKey int

const (
	keyRID ctxKey = iota
	keyTeam
	keyChannel
	keyUser
	keyHandler
)

// Meta identifies the Slack interaction a log line belongs to.
type Meta struct {
	TeamID    string
	ChannelID string
	UserID    string
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, keyRID, rid)
}

// RIDFrom returns the correlation id or "".
func RIDFrom(ctx context.Context) string {
	return stringValue(ctx, keyRID)
}

// WithMeta attaches team, channel and user ids. Empty values are skipped.
func WithMeta(ctx context.Context, m Meta) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.TeamID != "" {
		ctx = context.WithValue(ctx, keyTeam, m.TeamID)
	}
	if m.ChannelID != "" {
		ctx = context.WithValue(ctx, keyChannel, m.ChannelID)
	}
	if m.UserID != "" {
		ctx = context.WithValue(ctx, keyUser, m.UserID)
	}
	return ctx
}

// MetaFrom returns whatever ids were attached with WithMeta.
func MetaFrom(ctx context.Context) Meta {
	return Meta{
		TeamID:    stringValue(ctx, keyTeam),
		ChannelID: stringValue(ctx, keyChannel),
		UserID:    stringValue(ctx, keyUser),
	}
}

// WithHandler stores the handler identifier for downstream logs.
func WithHandler(ctx context.Context, handler string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if handler == "" {
		return ctx
	}
	return context.WithValue(ctx, keyHandler, handler)
}

// HandlerFrom returns the handler identifier or "".
func HandlerFrom(ctx context.Context) string {
	return stringValue(ctx, keyHandler)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

// NewRID returns a correlation id for requests that carry none
// (HTTP mode has no envelope id).
func NewRID() string {
	return uuid.NewString()
}

// CompactRID shortens a UUID-shaped rid to its first group for readability.
// Other inputs are returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	if rid == "" {
		return ""
	}
	id, err := uuid.Parse(rid)
	if err != nil {
		return rid
	}
	return strings.SplitN(id.String(), "-", 2)[0]
}

// Sanitize drops control and format runes except tab and newline.
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizeLimit applies Sanitize and truncates to max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(Sanitize(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max])
}
