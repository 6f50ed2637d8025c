package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/meetsy/core/config"
	"github.com/m3rciful/meetsy/core/enrollment"
	"github.com/m3rciful/meetsy/core/forms"
)

const modalJSON = `{"type":"modal","callback_id":"meetsy-create","title":{"type":"plain_text","text":"Create"},"blocks":[]}`

func testConfig(t *testing.T) *coreconfig.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CreateMeetsyModal.json"), []byte(modalJSON), 0o600))
	return &coreconfig.Config{Forms: coreconfig.FormsConfig{TemplatesDir: dir}}
}

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabaseUsesMemoryStore(t *testing.T) {
	res, err := Run(context.Background(), Options{
		Config:     testConfig(t),
		LoggerInit: noLogger,
		Connect: func(coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			t.Fatal("connect must not be called without a database host")
			return nil, nil
		},
		Modules: Modules{
			Schemas: []forms.Schema{{FormID: "meetsy-create"}},
		},
	})
	require.NoError(t, err)

	assert.Nil(t, res.DB)
	assert.IsType(t, &enrollment.MemoryStore{}, res.Store)
	assert.Equal(t, []string{"CreateMeetsyModal"}, res.Templates.Names())
	assert.Equal(t, []string{"meetsy-create"}, res.Forms.IDs())
	assert.NoError(t, res.Close())
}

func TestRunPropagatesFailures(t *testing.T) {
	cfg := testConfig(t)

	_, err := Run(context.Background(), Options{Config: cfg, LoggerInit: func(*coreconfig.Config) error {
		return errors.New("boom")
	}})
	assert.ErrorContains(t, err, "logger init failed")

	cfg.Database.Host = "db.internal"
	_, err = Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			return nil, errors.New("refused")
		},
	})
	assert.ErrorContains(t, err, "database initialization failed")

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{Forms: coreconfig.FormsConfig{TemplatesDir: filepath.Join(t.TempDir(), "missing")}},
		LoggerInit: noLogger,
	})
	assert.ErrorContains(t, err, "templates")

	_, err = Run(context.Background(), Options{
		Config:     testConfig(t),
		LoggerInit: noLogger,
		Modules:    Modules{Schemas: []forms.Schema{{FormID: ""}}},
	})
	assert.ErrorIs(t, err, forms.ErrEmptyFormID)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestDefaultStore(t *testing.T) {
	assert.IsType(t, &enrollment.MemoryStore{}, DefaultStore(nil))
}
