// Package pgstore persists enrollments in Postgres.
package pgstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/meetsy/core/enrollment"
	"github.com/m3rciful/meetsy/core/logger"
)

// The conflict branch keeps the existing id; RETURNING reports whichever id
// the row ends up with.
const upsertEnrollment = `
INSERT INTO enrollments (id, channel_id, user_id, real_name, display_name, email, title, enrolled_at)
VALUES (:id, :channel_id, :user_id, :real_name, :display_name, :email, :title, :enrolled_at)
ON CONFLICT (channel_id, user_id) DO UPDATE SET
	real_name    = EXCLUDED.real_name,
	display_name = EXCLUDED.display_name,
	email        = EXCLUDED.email,
	title        = EXCLUDED.title,
	enrolled_at  = EXCLUDED.enrolled_at
RETURNING id`

// DB is the part of *sqlx.DB the store uses.
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var _ DB = (*sqlx.DB)(nil)

type row struct {
	ID          string    `db:"id"`
	ChannelID   string    `db:"channel_id"`
	UserID      string    `db:"user_id"`
	RealName    string    `db:"real_name"`
	DisplayName string    `db:"display_name"`
	Email       string    `db:"email"`
	Title       string    `db:"title"`
	EnrolledAt  time.Time `db:"enrolled_at"`
}

func toRow(rec *enrollment.Record) row {
	return row{
		ID:          rec.ID.String(),
		ChannelID:   rec.ChannelID,
		UserID:      rec.UserID,
		RealName:    rec.Profile.RealName,
		DisplayName: rec.Profile.DisplayName,
		Email:       rec.Profile.Email,
		Title:       rec.Profile.Title,
		EnrolledAt:  rec.EnrolledAt,
	}
}

// Store implements enrollment.Store.
type Store struct {
	db DB
}

// New creates a Store over db.
func New(db DB) *Store {
	return &Store{db: db}
}

// Save upserts rec keyed by channel and user and sets rec.ID to the id of
// the stored row.
func (s *Store) Save(ctx context.Context, rec *enrollment.Record) error {
	start := time.Now()
	stored, err := s.upsert(ctx, rec)
	if err != nil {
		logger.LogEvent(ctx, logger.DB, slog.LevelError, "enrollment.save",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return fmt.Errorf("save enrollment %s/%s: %w", rec.ChannelID, rec.UserID, err)
	}
	logger.LogEvent(ctx, logger.DB, slog.LevelDebug, "enrollment.save",
		slog.String("status", "ok"),
		slog.Bool("updated", stored != rec.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	rec.ID = stored
	return nil
}

func (s *Store) upsert(ctx context.Context, rec *enrollment.Record) (uuid.UUID, error) {
	query, args, err := sqlx.Named(upsertEnrollment, toRow(rec))
	if err != nil {
		return uuid.Nil, err
	}
	var id string
	if err := s.db.GetContext(ctx, &id, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return uuid.Nil, err
	}
	stored, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("enrollment id %q: %w", id, err)
	}
	return stored, nil
}
