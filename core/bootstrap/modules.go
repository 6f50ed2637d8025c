package bootstrap

import (
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/meetsy/core/enrollment"
	"github.com/m3rciful/meetsy/core/enrollment/pgstore"
	"github.com/m3rciful/meetsy/core/forms"
)

// StoreProvider builds the enrollment store. db is nil when no database is configured.
type StoreProvider func(db *sqlx.DB) enrollment.Store

// Modules groups optional bootstrapping hooks.
type Modules struct {
	// Schemas are registered in the form registry before any route is wired.
	Schemas []forms.Schema
	Store   StoreProvider
}

// DefaultStore uses Postgres when a database is connected and memory otherwise.
func DefaultStore(db *sqlx.DB) enrollment.Store {
	if db == nil {
		return enrollment.NewMemoryStore()
	}
	return pgstore.New(db)
}
