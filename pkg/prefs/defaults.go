package prefs

import (
	"log/slog"
	"maps"
)

// DefaultSuite is the suite used when none is given.
const DefaultSuite = "standard"

// Defaults is a plain preferences store over one suite of a Backend.
// It keeps no values of its own; every call goes to the backend.
type Defaults struct {
	backend    Backend
	suite      string
	registered map[string]any
	logger     *slog.Logger
}

// DefaultsOption configures a Defaults store.
type DefaultsOption func(*Defaults)

// WithRegistered sets fallback values returned when the backend has no entry.
// Registered values are never written to the backend.
func WithRegistered(values map[string]any) DefaultsOption {
	return func(d *Defaults) {
		d.registered = maps.Clone(values)
	}
}

// WithLogger sets the logger used to report dropped writes.
func WithLogger(l *slog.Logger) DefaultsOption {
	return func(d *Defaults) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDefaults returns a store bound to suite. An empty suite selects DefaultSuite.
func NewDefaults(b Backend, suite string, opts ...DefaultsOption) *Defaults {
	if suite == "" {
		suite = DefaultSuite
	}
	d := &Defaults{
		backend: b,
		suite:   suite,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Suite returns the suite this store reads and writes.
func (d *Defaults) Suite() string { return d.suite }

// Value returns the stored value, falling back to a registered one.
func (d *Defaults) Value(name string) (any, bool) {
	val, err := d.backend.Get(d.suite, name)
	if err == nil && val != nil {
		return val, true
	}
	if v, ok := d.registered[name]; ok {
		return v, true
	}
	return nil, false
}

// SetValue writes val under name. A nil val removes the entry.
func (d *Defaults) SetValue(name string, val any) {
	if val == nil {
		d.RemoveValue(name)
		return
	}
	if err := d.backend.Set(d.suite, name, val); err != nil {
		d.logger.Warn("preference write dropped", "suite", d.suite, "key", name, "error", err)
	}
}

// RemoveValue deletes name. Removing an absent entry is a no-op.
func (d *Defaults) RemoveValue(name string) {
	if err := d.backend.Delete(d.suite, name); err != nil {
		d.logger.Warn("preference delete dropped", "suite", d.suite, "key", name, "error", err)
	}
}
