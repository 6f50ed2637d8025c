package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/meetsy/core/config"
	coredatabase "github.com/m3rciful/meetsy/core/database"
	"github.com/m3rciful/meetsy/core/enrollment"
	"github.com/m3rciful/meetsy/core/forms"
	"github.com/m3rciful/meetsy/core/logger"
	"github.com/m3rciful/meetsy/core/templates"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config  *coreconfig.Config
	Modules Modules

	LoggerInit    func(*coreconfig.Config) error
	Connect       func(coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate       func(coreconfig.DatabaseConfig) error
	LoadTemplates func(dir string) (*templates.Store, error)
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil when the database section is empty.
	DB        *sqlx.DB
	Store     enrollment.Store
	Templates *templates.Store
	Forms     *forms.Registry
}

// Close releases the database handle, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, the optional database with its migrations, the
// enrollment store, modal templates and the form registry. Template watching
// stops when ctx is done.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{Forms: forms.NewRegistry()}
	for _, s := range opts.Modules.Schemas {
		if err := res.Forms.Register(s); err != nil {
			return nil, fmt.Errorf("bootstrap: form schema: %w", err)
		}
	}

	if cfg.Database.Enabled() {
		db, err := openDatabase(opts, cfg.Database)
		if err != nil {
			return nil, err
		}
		res.DB = db
	} else {
		logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "db.disabled",
			slog.String("status", "skip"),
			slog.String("store", "memory"),
		)
	}

	provide := opts.Modules.Store
	if provide == nil {
		provide = DefaultStore
	}
	res.Store = provide(res.DB)

	load := opts.LoadTemplates
	if load == nil {
		load = templates.Load
	}
	tpl, err := load(cfg.Forms.TemplatesDir)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("bootstrap: templates: %w", err)
	}
	res.Templates = tpl
	if cfg.Forms.Watch {
		if err := tpl.Watch(ctx); err != nil {
			logger.Warn(ctx, "forms", "templates.watch_failed", slog.String("err", err.Error()))
		}
	}

	return res, nil
}

func openDatabase(opts Options, cfg coreconfig.DatabaseConfig) (*sqlx.DB, error) {
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(cfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return db, nil
}
