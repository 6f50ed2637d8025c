package pgstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meetsy/core/enrollment"
)

// fakeDB answers the upsert like Postgres does: the first save of a
// channel/user keeps its id, later saves return that id.
type fakeDB struct {
	query string
	args  []interface{}
	ids   map[string]string
	err   error
}

func (f *fakeDB) GetContext(_ context.Context, dest interface{}, query string, args ...interface{}) error {
	f.query, f.args = query, args
	if f.err != nil {
		return f.err
	}
	if f.ids == nil {
		f.ids = make(map[string]string)
	}
	// args follow the VALUES order: id, channel_id, user_id, ...
	key := args[1].(string) + "/" + args[2].(string)
	if _, ok := f.ids[key]; !ok {
		f.ids[key] = args[0].(string)
	}
	*(dest.(*string)) = f.ids[key]
	return nil
}

var (
	firstID  = uuid.MustParse("0b8f3c2a-6a4e-4c1e-9d3f-2b1e0c5a7d90")
	secondID = uuid.MustParse("7c1d2e3f-4a5b-4c6d-8e7f-901a2b3c4d5e")
	enrolled = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
)

func sampleRecord(id uuid.UUID) *enrollment.Record {
	return &enrollment.Record{
		ID:         id,
		ChannelID:  "C1",
		UserID:     "U1",
		Profile:    enrollment.Profile{RealName: "Ada Lovelace", DisplayName: "ada", Email: "ada@example.com", Title: "Engineer"},
		EnrolledAt: enrolled,
	}
}

func TestSaveBindsPositionalArgs(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, New(db).Save(context.Background(), sampleRecord(firstID)))

	assert.Contains(t, db.query, "ON CONFLICT (channel_id, user_id)")
	assert.Contains(t, db.query, "RETURNING id")
	assert.Contains(t, db.query, "$8")
	assert.False(t, strings.Contains(db.query, ":channel_id"))
	assert.Equal(t, []interface{}{
		firstID.String(), "C1", "U1", "Ada Lovelace", "ada", "ada@example.com", "Engineer", enrolled,
	}, db.args)
}

func TestSaveReportsStoredIDOnReEnroll(t *testing.T) {
	db := &fakeDB{}
	store := New(db)
	ctx := context.Background()

	first := sampleRecord(firstID)
	require.NoError(t, store.Save(ctx, first))
	assert.Equal(t, firstID, first.ID)

	again := sampleRecord(secondID)
	require.NoError(t, store.Save(ctx, again))
	assert.Equal(t, firstID, again.ID)
}

func TestSaveWrapsError(t *testing.T) {
	cause := errors.New("connection refused")
	rec := sampleRecord(firstID)
	err := New(&fakeDB{err: cause}).Save(context.Background(), rec)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "C1/U1")
	assert.Equal(t, firstID, rec.ID)
}
