// Package enrollment records channel members who opt in to meetsy.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/metrics"
)

var (
	// ErrAPI marks a failed profile lookup.
	ErrAPI = errors.New("enrollment: profile lookup failed")
	// ErrStore marks a failed save.
	ErrStore = errors.New("enrollment: store failed")
)

// Profile is the snapshot of a user's Slack profile taken at enrollment.
type Profile struct {
	RealName    string
	DisplayName string
	Email       string
	Title       string
}

// Record is one enrollment of a user in a channel.
type Record struct {
	ID         uuid.UUID
	ChannelID  string
	UserID     string
	Profile    Profile
	EnrolledAt time.Time
}

// ProfileSource looks up Slack user profiles.
type ProfileSource interface {
	GetUserProfile(ctx context.Context, userID string) (*slack.UserProfile, error)
}

// Store persists enrollment records keyed by channel and user. Save writes
// the persisted ID back into rec, so a repeat enrollment reports the ID of
// the first one.
type Store interface {
	Save(ctx context.Context, rec *Record) error
}

// Outcome is the result of Enroll: a saved Record, or the Reason it failed.
// Reason wraps ErrAPI or ErrStore.
type Outcome struct {
	Record *Record
	Reason error
}

// OK reports success.
func (o Outcome) OK() bool {
	return o.Reason == nil
}

// Code returns a short machine code for the failure reason.
func (o Outcome) Code() string {
	switch {
	case o.Reason == nil:
		return ""
	case errors.Is(o.Reason, ErrAPI):
		return "ERR_API"
	case errors.Is(o.Reason, ErrStore):
		return "ERR_STORE"
	default:
		return "ERR_UNKNOWN"
	}
}

// Service runs the enrollment use case.
type Service struct {
	profiles ProfileSource
	store    Store

	now   func() time.Time
	newID func() uuid.UUID
}

// NewService creates a Service.
func NewService(profiles ProfileSource, store Store) *Service {
	return &Service{
		profiles: profiles,
		store:    store,
		now:      time.Now,
		newID:    uuid.New,
	}
}

// Enroll fetches the user's profile and saves an enrollment record. It never
// retries; a failed lookup means the store is not called.
func (s *Service) Enroll(ctx context.Context, channelID, userID string) Outcome {
	start := time.Now()
	out := s.enroll(ctx, channelID, userID)

	result := "ok"
	level := slog.LevelInfo
	attrs := []slog.Attr{
		slog.String("channel_id", channelID),
		slog.String("user_id", userID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if out.OK() {
		attrs = append(attrs, slog.String("status", "ok"), slog.String("record_id", out.Record.ID.String()))
	} else {
		result = "fail"
		level = slog.LevelWarn
		attrs = append(attrs,
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(out.Reason.Error(), 256)),
			slog.String("err_code", out.Code()),
		)
	}
	metrics.Enrollments.WithLabelValues(result).Inc()
	logger.LogEvent(ctx, logger.Component("service.enrollment"), level, "enroll", attrs...)
	return out
}

func (s *Service) enroll(ctx context.Context, channelID, userID string) Outcome {
	p, err := s.profiles.GetUserProfile(ctx, userID)
	if err != nil {
		return Outcome{Reason: fmt.Errorf("%w: %w", ErrAPI, err)}
	}
	if p == nil {
		return Outcome{Reason: fmt.Errorf("%w: empty profile for %s", ErrAPI, userID)}
	}

	rec := Record{
		ID:        s.newID(),
		ChannelID: channelID,
		UserID:    userID,
		Profile: Profile{
			RealName:    p.RealName,
			DisplayName: p.DisplayName,
			Email:       p.Email,
			Title:       p.Title,
		},
		EnrolledAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, &rec); err != nil {
		return Outcome{Reason: fmt.Errorf("%w: %w", ErrStore, err)}
	}
	return Outcome{Record: &rec}
}
