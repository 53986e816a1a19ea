// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/invowk/modcat/internal/cache"
	"github.com/invowk/modcat/internal/config"
	"github.com/invowk/modcat/internal/host"
	"github.com/invowk/modcat/internal/issue"
	"github.com/invowk/modcat/internal/repository"
	"github.com/invowk/modcat/internal/store"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

type (
	// StoreOpener opens and migrates the module store selected by cfg.
	StoreOpener func(ctx context.Context, cfg *config.Config) (*store.GormStore, error)

	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: every command handler receives an App and opens a
	// session through it.
	App struct {
		Config    config.Provider
		OpenStore StoreOpener
		Fs        afero.Fs
		stdout    io.Writer
		stderr    io.Writer

		// Cache is shared by every session the App opens, so a long-lived
		// process such as serve memoizes the catalog across requests.
		Cache cache.Cache

		// Global flag values, bound by NewRootCommand.
		configPath string
		verbose    bool
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		OpenStore StoreOpener
		Fs        afero.Fs
		Cache     cache.Cache
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// session is one command invocation's view of the catalog.
	session struct {
		cfg    *config.Config
		repo   *repository.Repository
		host   *host.Host
		logger *log.Logger
		store  *store.GormStore
	}

	sessionOption func(*sessionSettings)

	sessionSettings struct {
		keepFiles bool
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		OpenStore: deps.OpenStore,
		Fs:        deps.Fs,
		Cache:     deps.Cache,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.OpenStore == nil {
		app.OpenStore = openStore
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.Cache == nil {
		app.Cache = cache.NewMemory()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// withKeepFiles leaves module directories in place when modules are deleted.
func withKeepFiles(keep bool) sessionOption {
	return func(s *sessionSettings) { s.keepFiles = keep }
}

// loadConfig loads configuration honoring the --config flag.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	return a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
}

// newLogger returns the stderr logger for cfg. --verbose forces debug level.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(string(cfg.Log.Level))
	if err != nil {
		level = log.InfoLevel
	}
	if a.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "modcat",
		Level:  level,
	})
}

// open loads configuration, opens the store and builds the repository.
// Callers must Close the session.
func (a *App) open(ctx context.Context, opts ...sessionOption) (*session, error) {
	var settings sessionSettings
	for _, opt := range opts {
		opt(&settings)
	}

	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	logger := a.newLogger(cfg)
	logger.Debug("configuration loaded", "path", cfg.Path(), "driver", cfg.Database.Driver)

	st, err := a.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	h := host.New(host.WithLogger(logger.WithPrefix("host")))
	repoOpts := []repository.Option{
		repository.WithHost(h),
		repository.WithLogger(logger.WithPrefix("repository")),
	}
	if !settings.keepFiles {
		repoOpts = append(repoOpts, repository.WithFs(a.Fs))
	}

	return &session{
		cfg:    cfg,
		repo:   repository.New(st, a.Cache, cfg, repoOpts...),
		host:   h,
		logger: logger,
		store:  st,
	}, nil
}

// Close releases the session's database connection.
func (s *session) Close() error {
	return s.store.Close()
}

// openStore is the production StoreOpener.
func openStore(ctx context.Context, cfg *config.Config) (*store.GormStore, error) {
	st, err := store.Open(string(cfg.Database.Driver), cfg.Database.DSN)
	if err != nil {
		return nil, databaseError(cfg, err)
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, databaseError(cfg, err)
	}
	return st, nil
}

func databaseError(cfg *config.Config, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("open module database").
		WithResource(string(cfg.Database.Driver)).
		WithIssue(issue.DatabaseUnavailableId).
		Wrap(err)
	if errors.Is(err, store.ErrUnsupportedDriver) {
		ctx = ctx.WithSuggestion("Set database.driver to \"sqlite\" or \"postgres\"")
	} else {
		ctx = ctx.WithSuggestion("Check database.dsn or the MODCAT_DATABASE_DSN environment variable")
	}
	return ctx.BuildError()
}
