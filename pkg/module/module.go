// SPDX-License-Identifier: MPL-2.0

package module

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
)

const (
	// AttrActive is the attribute holding the enabled flag.
	AttrActive = "is_active"
	// AttrOrder is the attribute holding the lifecycle position.
	AttrOrder = "order"
	// AttrAlias is the attribute holding the dependency alias.
	AttrAlias = "alias"
	// AttrName is the attribute holding the module name.
	AttrName = "name"
	// AttrRequires lists the aliases this module depends on.
	AttrRequires = "requires"
	// AttrProviders lists the providers registered on Register.
	AttrProviders = "providers"
	// AttrAliases maps class aliases registered on Register.
	AttrAliases = "aliases"

	// attrActiveLegacy is the metadata spelling of AttrActive.
	attrActiveLegacy = "active"
)

// ErrNoDeleter is returned by Delete on a persisted module built without a Deleter.
var ErrNoDeleter = errors.New("module has no deleter")

type (
	// Deleter removes the stored record of a module.
	Deleter interface {
		DeleteByName(ctx context.Context, name string) (bool, error)
	}

	// Activator flips the stored enabled flag of a module.
	Activator interface {
		SetActive(ctx context.Context, name string, active bool) (bool, error)
	}

	// Module is one catalog entry.
	//
	// A Module built from a stored record has an identity and reads attributes
	// from its Persisted map only. A Module without identity reads them from
	// its FileBacked metadata document.
	Module struct {
		name   string
		alias  string
		path   string
		id     uint
		hasID  bool
		source AttributeSource

		host      Host
		deleter   Deleter
		activator Activator
		fs        afero.Fs
	}

	// Option configures a Module.
	Option func(*Module)

	// Snapshot is the plain value form of a Module, used for caching and output.
	Snapshot struct {
		Name       string         `json:"name"`
		Alias      string         `json:"alias"`
		Path       string         `json:"path"`
		ID         *uint          `json:"id,omitempty"`
		Enabled    bool           `json:"enabled"`
		Attributes map[string]any `json:"attributes"`
	}
)

// WithID sets the persisted identity.
func WithID(id uint) Option {
	return func(m *Module) {
		m.id = id
		m.hasID = true
	}
}

// WithAlias sets the alias explicitly instead of reading the alias attribute.
func WithAlias(alias string) Option {
	return func(m *Module) { m.alias = alias }
}

// WithHost sets the lifecycle host.
func WithHost(h Host) Option {
	return func(m *Module) { m.host = h }
}

// WithDeleter sets the record deleter used by Delete.
func WithDeleter(d Deleter) Option {
	return func(m *Module) { m.deleter = d }
}

// WithActivator sets the activator used by Enable and Disable.
func WithActivator(a Activator) Option {
	return func(m *Module) { m.activator = a }
}

// WithFs sets the filesystem the module directory is removed from on Delete.
// Without it, Delete leaves the directory in place.
func WithFs(fs afero.Fs) Option {
	return func(m *Module) { m.fs = fs }
}

// New creates a Module reading attributes from source.
func New(name, path string, source AttributeSource, opts ...Option) *Module {
	m := &Module{
		name:   name,
		path:   path,
		source: source,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewPersisted creates a Module for a stored record.
func NewPersisted(id uint, name, path string, attrs map[string]any, opts ...Option) *Module {
	opts = append([]Option{WithID(id)}, opts...)
	return New(name, path, Persisted{Attributes: attrs}, opts...)
}

// NewFileBacked creates a Module from the metadata document in dir.
// The module name comes from the document's name field.
func NewFileBacked(dir string, reader MetadataReader, opts ...Option) (*Module, error) {
	source := FileBacked{Dir: dir, Reader: reader}
	raw, ok, err := source.Lookup(AttrName)
	if err != nil {
		return nil, err
	}
	name, castErr := cast.ToStringE(raw)
	if !ok || castErr != nil || name == "" {
		return nil, &InvalidAttributeError{Module: dir, Key: AttrName, Value: raw, Want: "non-empty string"}
	}
	return New(name, dir, source, opts...), nil
}

// Name returns the unique module name.
func (m *Module) Name() string {
	return m.name
}

// Alias returns the dependency alias: the explicit alias when set, else the alias attribute.
func (m *Module) Alias() string {
	if m.alias != "" {
		return m.alias
	}
	alias, err := m.String(AttrAlias, "")
	if err != nil {
		return ""
	}
	return alias
}

// Path returns the module directory.
func (m *Module) Path() string {
	return m.path
}

// ID returns the persisted identity. ok is false for file-backed modules.
func (m *Module) ID() (id uint, ok bool) {
	return m.id, m.hasID
}

// Source returns the attribute source.
func (m *Module) Source() AttributeSource {
	return m.source
}

// Get returns the attribute at key, or def when absent.
// Source errors (unreadable or invalid metadata) are returned, never masked.
func (m *Module) Get(key string, def any) (any, error) {
	if m.source == nil {
		return def, nil
	}
	v, ok, err := m.source.Lookup(key)
	if err != nil {
		return nil, fmt.Errorf("module [%s]: read attribute %q: %w", m.name, key, err)
	}
	if !ok || v == nil {
		return def, nil
	}
	return v, nil
}

// String returns a string attribute.
func (m *Module) String(key, def string) (string, error) {
	v, err := m.Get(key, def)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", m.invalid(key, v, "string")
	}
	return s, nil
}

// Int returns an integer attribute.
func (m *Module) Int(key string, def int) (int, error) {
	v, err := m.Get(key, def)
	if err != nil {
		return 0, err
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return 0, m.invalid(key, v, "integer")
	}
	return i, nil
}

// Bool returns a boolean attribute. Integers 0 and 1 are accepted.
func (m *Module) Bool(key string, def bool) (bool, error) {
	v, err := m.Get(key, def)
	if err != nil {
		return false, err
	}
	b, ok := toBool(v)
	if !ok {
		return false, m.invalid(key, v, "boolean or 0/1")
	}
	return b, nil
}

// Strings returns a list-of-strings attribute. An absent attribute is an empty list.
func (m *Module) Strings(key string) ([]string, error) {
	v, err := m.Get(key, nil)
	if err != nil {
		return nil, err
	}
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), list...), nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, m.invalid(key, v, "list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, m.invalid(key, v, "list of strings")
	}
}

// StringMap returns an object-of-strings attribute. An absent attribute is an empty map.
func (m *Module) StringMap(key string) (map[string]string, error) {
	v, err := m.Get(key, nil)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]string{}, nil
	}
	out, err := cast.ToStringMapStringE(v)
	if err != nil {
		return nil, m.invalid(key, v, "object of strings")
	}
	return out, nil
}

// Attributes returns a copy of every attribute of the module.
func (m *Module) Attributes() (map[string]any, error) {
	if m.source == nil {
		return map[string]any{}, nil
	}
	attrs, err := m.source.Values()
	if err != nil {
		return nil, fmt.Errorf("module [%s]: read attributes: %w", m.name, err)
	}
	return attrs, nil
}

// Active reads the enabled flag. A module without the flag is disabled;
// a flag of the wrong type is an InvalidAttributeError.
func (m *Module) Active() (bool, error) {
	key := AttrActive
	if m.source != nil && m.source.Kind() == SourceFileBacked {
		if _, ok, err := m.source.Lookup(AttrActive); err == nil && !ok {
			key = attrActiveLegacy
		}
	}
	return m.Bool(key, false)
}

// Enabled reports whether the module takes part in lifecycle dispatch.
// Exactly one of Enabled and Disabled is true; an unreadable flag counts as disabled.
func (m *Module) Enabled() bool {
	active, err := m.Active()
	return err == nil && active
}

// Disabled is the complement of Enabled.
func (m *Module) Disabled() bool {
	return !m.Enabled()
}

// Order returns the lifecycle position (0 when unset).
func (m *Module) Order() (int, error) {
	return m.Int(AttrOrder, 0)
}

// Requires returns the aliases this module depends on.
func (m *Module) Requires() ([]string, error) {
	return m.Strings(AttrRequires)
}

// Enable marks the module active in the store.
func (m *Module) Enable(ctx context.Context) error {
	return m.setActive(ctx, true)
}

// Disable marks the module inactive in the store.
func (m *Module) Disable(ctx context.Context) error {
	return m.setActive(ctx, false)
}

func (m *Module) setActive(ctx context.Context, active bool) error {
	if m.activator == nil {
		return fmt.Errorf("module [%s]: no activator configured", m.name)
	}
	found, err := m.activator.SetActive(ctx, m.name, active)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Name: m.name}
	}
	if p, ok := m.source.(Persisted); ok && p.Attributes != nil {
		p.Attributes[AttrActive] = active
	}
	return nil
}

// Delete removes the stored record of the module and, when the module was built
// with a filesystem, its directory. It returns false when the record was already gone.
func (m *Module) Delete(ctx context.Context) (bool, error) {
	if m.hasID {
		if m.deleter == nil {
			return false, ErrNoDeleter
		}
		deleted, err := m.deleter.DeleteByName(ctx, m.name)
		if err != nil {
			return false, fmt.Errorf("module [%s]: delete record: %w", m.name, err)
		}
		if !deleted {
			return false, nil
		}
	}

	if m.fs != nil && m.path != "" {
		if err := m.fs.RemoveAll(m.path); err != nil {
			return false, fmt.Errorf("module [%s]: remove directory %s: %w", m.name, m.path, err)
		}
	}

	return true, nil
}

// Snapshot returns the plain value form of the module.
func (m *Module) Snapshot() (Snapshot, error) {
	attrs, err := m.Attributes()
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		Name:       m.name,
		Alias:      m.Alias(),
		Path:       m.path,
		Enabled:    m.Enabled(),
		Attributes: attrs,
	}
	if m.hasID {
		id := m.id
		s.ID = &id
	}
	return s, nil
}

// Clone returns a copy of s that shares no maps or slices with it.
func (s Snapshot) Clone() Snapshot {
	if s.ID != nil {
		id := *s.ID
		s.ID = &id
	}
	if s.Attributes != nil {
		s.Attributes = cloneValue(s.Attributes).(map[string]any)
	}
	return s
}

// cloneValue copies the map and slice shapes decoded attribute values take.
func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case map[string]string:
		return maps.Clone(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(x)
	default:
		return v
	}
}

func (m *Module) invalid(key string, v any, want string) error {
	return &InvalidAttributeError{Module: m.name, Key: key, Value: v, Want: want}
}

// toBool accepts booleans and the integers 0 and 1, as stored by SQL backends.
func toBool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	i, err := cast.ToInt64E(v)
	if err != nil {
		return false, false
	}
	switch i {
	case 0:
		return false, true
	case 1:
		return true, true
	default:
		return false, false
	}
}
