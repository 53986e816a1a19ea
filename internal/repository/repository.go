// SPDX-License-Identifier: MPL-2.0

package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/invowk/modcat/internal/cache"
	"github.com/invowk/modcat/internal/config"
	"github.com/invowk/modcat/internal/store"
	"github.com/invowk/modcat/pkg/modmeta"
	"github.com/invowk/modcat/pkg/module"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

// Namespace is the configuration namespace the repository reads its keys from.
const Namespace = "modules"

var (
	// ErrDuplicateModule is returned by Install when the module name is already stored.
	ErrDuplicateModule = errors.New("module already exists")

	// ErrInvalidDirection is returned by GetOrdered for an unknown direction.
	ErrInvalidDirection = store.ErrInvalidDirection
)

type (
	// ConfigSource answers dotted-key lookups with a fallback.
	// *config.Config implements it.
	ConfigSource interface {
		Get(key string, def any) any
	}

	// Option configures a Repository.
	Option func(*Repository)

	// Repository resolves stored module records into ordered, queryable views.
	Repository struct {
		store  store.Store
		cache  cache.Cache
		cfg    ConfigSource
		host   module.Host
		reader module.MetadataReader
		logger *log.Logger
		fs     afero.Fs
	}

	emptyConfig struct{}
)

func (emptyConfig) Get(_ string, def any) any { return def }

// WithHost sets the lifecycle host handed to every module.
func WithHost(h module.Host) Option {
	return func(r *Repository) { r.host = h }
}

// WithMetadataReader sets the reader Install uses. Defaults to a modmeta.Reader
// over the repository filesystem.
func WithMetadataReader(reader module.MetadataReader) Option {
	return func(r *Repository) { r.reader = reader }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithFs sets the filesystem module directories are read from and removed from.
// Without it, deleting a module leaves its directory in place.
func WithFs(fs afero.Fs) Option {
	return func(r *Repository) { r.fs = fs }
}

// New creates a Repository. A nil cache disables memoization; a nil cfg uses defaults only.
func New(st store.Store, c cache.Cache, cfg ConfigSource, opts ...Option) *Repository {
	r := &Repository{
		store: st,
		cache: c,
		cfg:   cfg,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.cache == nil {
		r.cache = cache.Nop{}
	}
	if r.cfg == nil {
		r.cfg = emptyConfig{}
	}
	if r.host == nil {
		r.host = module.NopHost{}
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.reader == nil {
		r.reader = modmeta.NewReader(r.fs)
	}
	return r
}

// Config returns the value at key inside the modules namespace, or def.
func (r *Repository) Config(key string, def any) any {
	return r.cfg.Get(Namespace+"."+key, def)
}

// All returns every module in storage order.
func (r *Repository) All(ctx context.Context) ([]*module.Module, error) {
	return r.get(ctx, r.store.Query())
}

// AllEnabled returns the modules whose is_active flag is set.
func (r *Repository) AllEnabled(ctx context.Context) ([]*module.Module, error) {
	return r.GetByStatus(ctx, true)
}

// AllDisabled returns the modules whose is_active flag is clear.
func (r *Repository) AllDisabled(ctx context.Context) ([]*module.Module, error) {
	return r.GetByStatus(ctx, false)
}

// GetByStatus returns the modules whose is_active flag equals active.
// The filter is applied by the store query.
func (r *Repository) GetByStatus(ctx context.Context, active bool) ([]*module.Module, error) {
	return r.get(ctx, r.store.Query().WhereActive(active))
}

// GetOrdered returns the enabled modules sorted by their order attribute.
// Disabled modules never appear. Ties keep the store's natural order.
func (r *Repository) GetOrdered(ctx context.Context, dir store.Direction) ([]*module.Module, error) {
	if dir != store.Asc && dir != store.Desc {
		return nil, fmt.Errorf("%w: %q (expected asc or desc)", ErrInvalidDirection, dir)
	}
	return r.get(ctx, r.store.Query().WhereActive(true).OrderByOrder(dir))
}

// Find returns the module named name, or nil when there is none.
func (r *Repository) Find(ctx context.Context, name string) (*module.Module, error) {
	return r.first(ctx, r.store.Query().WhereName(name))
}

// FindOrFail is Find that returns a *module.NotFoundError when the module is absent.
func (r *Repository) FindOrFail(ctx context.Context, name string) (*module.Module, error) {
	m, err := r.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &module.NotFoundError{Name: name}
	}
	return m, nil
}

// FindByAlias returns the module with the given alias, or nil when there is none.
func (r *Repository) FindByAlias(ctx context.Context, alias string) (*module.Module, error) {
	return r.first(ctx, r.store.Query().WhereAlias(alias))
}

// Exists reports whether a module named name is stored.
func (r *Repository) Exists(ctx context.Context, name string) (bool, error) {
	n, err := r.store.Query().WhereName(name).Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of stored modules.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	return r.store.Query().Count(ctx)
}

// ToCollection returns every module as a Collection in storage order.
func (r *Repository) ToCollection(ctx context.Context) (*module.Collection, error) {
	modules, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	return module.NewCollection(modules...), nil
}

// Scan materializes the full catalog without going through the cache.
func (r *Repository) Scan(ctx context.Context) ([]module.Snapshot, error) {
	c, err := r.ToCollection(ctx)
	if err != nil {
		return nil, err
	}
	return c.ToArray()
}

// GetCached returns the materialized catalog, computed at most once per cache
// lifetime. Key and lifetime come from modules.cache.key and
// modules.cache.lifetime; modules.cache.enabled=false bypasses the cache.
// Mutations do not invalidate the cached value; call Scan for fresh data.
// Every call returns its own copy, so callers may modify the result.
func (r *Repository) GetCached(ctx context.Context) ([]module.Snapshot, error) {
	if !cast.ToBool(r.Config("cache.enabled", true)) {
		return r.Scan(ctx)
	}

	key := cast.ToString(r.Config("cache.key", config.DefaultCacheKey))
	ttl, err := config.ParseLifetime(r.Config("cache.lifetime", config.DefaultCacheLifetime))
	if err != nil {
		return nil, err
	}

	cached, err := cache.RememberAs(ctx, r.cache, key, ttl, func(ctx context.Context) ([]module.Snapshot, error) {
		r.logger.Debug("catalog cache miss", "key", key, "ttl", ttl)
		return r.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}

	out := make([]module.Snapshot, len(cached))
	for i, s := range cached {
		out[i] = s.Clone()
	}
	return out, nil
}

// FindRequirements resolves the requires aliases of the named module, one level deep.
// The result has one slot per alias, in declaration order; a slot is nil when
// no module has that alias. Self references are returned like any other alias.
func (r *Repository) FindRequirements(ctx context.Context, name string) ([]*module.Module, error) {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return nil, err
	}

	aliases, err := m.Requires()
	if err != nil {
		return nil, err
	}

	requirements := make([]*module.Module, len(aliases))
	for i, alias := range aliases {
		requirements[i], err = r.FindByAlias(ctx, alias)
		if err != nil {
			return nil, err
		}
	}
	return requirements, nil
}

// Delete removes the named module, delegating the removal to the module itself.
func (r *Repository) Delete(ctx context.Context, name string) (bool, error) {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return false, err
	}
	return m.Delete(ctx)
}

// IsEnabled reports whether the named module is enabled.
func (r *Repository) IsEnabled(ctx context.Context, name string) (bool, error) {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return false, err
	}
	return m.Enabled(), nil
}

// IsDisabled reports whether the named module is disabled.
func (r *Repository) IsDisabled(ctx context.Context, name string) (bool, error) {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return false, err
	}
	return m.Disabled(), nil
}

// Enable sets the is_active flag of the named module.
func (r *Repository) Enable(ctx context.Context, name string) error {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return err
	}
	return m.Enable(ctx)
}

// Disable clears the is_active flag of the named module.
func (r *Repository) Disable(ctx context.Context, name string) error {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return err
	}
	return m.Disable(ctx)
}

// GetModulePath returns the directory of the named module.
func (r *Repository) GetModulePath(ctx context.Context, name string) (string, error) {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return "", err
	}
	return m.Path(), nil
}

// GetPath returns the directory modules are installed into (modules.paths.modules).
func (r *Repository) GetPath() string {
	return cast.ToString(r.Config("paths.modules", config.DefaultModulesPath))
}

// AssetPath returns the published asset directory of the named module.
func (r *Repository) AssetPath(name string) string {
	return filepath.Join(cast.ToString(r.Config("paths.assets", config.DefaultAssetsPath)), name)
}

// GetScanPaths returns the extra directories scanned for modules. A store-backed
// repository scans none.
func (r *Repository) GetScanPaths() []string {
	return []string{}
}

// Register runs the register hook of every enabled module in ascending order.
// The first failure aborts the remaining modules.
func (r *Repository) Register(ctx context.Context) error {
	return r.dispatch(ctx, module.EventRegister, (*module.Module).Register)
}

// Boot runs the boot hook of every enabled module in ascending order.
// The first failure aborts the remaining modules.
func (r *Repository) Boot(ctx context.Context) error {
	return r.dispatch(ctx, module.EventBoot, (*module.Module).Boot)
}

func (r *Repository) dispatch(ctx context.Context, event module.Event, hook func(*module.Module, context.Context) error) error {
	modules, err := r.GetOrdered(ctx, store.Asc)
	if err != nil {
		return err
	}

	for _, m := range modules {
		r.logger.Debug("lifecycle", "event", event, "module", m.Name())
		if err := hook(m, ctx); err != nil {
			r.logger.Error("lifecycle hook failed", "event", event, "module", m.Name(), "err", err)
			return err
		}
	}
	return nil
}

func (r *Repository) get(ctx context.Context, q store.Query) ([]*module.Module, error) {
	records, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}

	modules := make([]*module.Module, 0, len(records))
	for i := range records {
		m, err := r.toModule(&records[i])
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

func (r *Repository) first(ctx context.Context, q store.Query) (*module.Module, error) {
	rec, err := q.First(ctx)
	if err != nil || rec == nil {
		return nil, err
	}
	return r.toModule(rec)
}

func (r *Repository) toModule(rec *store.Record) (*module.Module, error) {
	attrs, err := rec.AttributeMap()
	if err != nil {
		return nil, err
	}

	opts := []module.Option{
		module.WithAlias(rec.Alias),
		module.WithHost(r.host),
		module.WithDeleter(r.store),
		module.WithActivator(r.store),
	}
	if r.fs != nil {
		opts = append(opts, module.WithFs(r.fs))
	}
	return module.NewPersisted(rec.ID, rec.Name, rec.Path, attrs, opts...), nil
}
