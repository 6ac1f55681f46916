package prefs

import "context"

// Compile-time interface satisfaction checks.
var (
	_ Store       = (*Defaults)(nil)
	_ Store       = (*Preferences)(nil)
	_ SecureStore = (*Secured)(nil)
	_ SecureStore = (*SecuredPreferences)(nil)
)

// Preferences hides the concrete plain store from application code.
// Use it with Get, Set, SetOptional and Remove.
type Preferences struct {
	store Store
}

// NewPreferences wraps s.
func NewPreferences(s Store) *Preferences {
	return &Preferences{store: s}
}

// Value returns the value stored under name.
func (p *Preferences) Value(name string) (any, bool) { return p.store.Value(name) }

// SetValue stores val under name. A nil val removes the entry.
func (p *Preferences) SetValue(name string, val any) { p.store.SetValue(name, val) }

// RemoveValue deletes name.
func (p *Preferences) RemoveValue(name string) { p.store.RemoveValue(name) }

// SecuredPreferences hides the concrete secure store from application code.
type SecuredPreferences struct {
	store SecureStore
}

// NewSecuredPreferences wraps s.
func NewSecuredPreferences(s SecureStore) *SecuredPreferences {
	return &SecuredPreferences{store: s}
}

// Value reads name asynchronously and calls completion with the result.
func (p *SecuredPreferences) Value(name string, completion func(string, bool)) {
	p.store.Value(name, completion)
}

// SetValue writes value under name and reports success.
func (p *SecuredPreferences) SetValue(name, value string) bool { return p.store.SetValue(name, value) }

// RemoveValue deletes name and reports whether it is gone.
func (p *SecuredPreferences) RemoveValue(name string) bool { return p.store.RemoveValue(name) }

// Get reads k and calls completion with the result.
func (p *SecuredPreferences) Get(k SecureKey, completion func(value string, ok bool)) {
	p.store.Value(k.Name(), completion)
}

// Set writes v under k.
func (p *SecuredPreferences) Set(k SecureKey, v string) bool {
	return p.store.SetValue(k.Name(), v)
}

// SetOptional writes *v under k, or removes k when v is nil.
func (p *SecuredPreferences) SetOptional(k SecureKey, v *string) bool {
	if v == nil {
		return p.store.RemoveValue(k.Name())
	}
	return p.store.SetValue(k.Name(), *v)
}

// Remove deletes k.
func (p *SecuredPreferences) Remove(k SecureKey) bool {
	return p.store.RemoveValue(k.Name())
}

// Lookup waits for the completion of Get. If ctx ends first Lookup returns
// ctx.Err(); the keychain read itself keeps running.
func (p *SecuredPreferences) Lookup(ctx context.Context, k SecureKey) (string, bool, error) {
	type result struct {
		value string
		ok    bool
	}
	done := make(chan result, 1)
	p.Get(k, func(value string, ok bool) {
		done <- result{value: value, ok: ok}
	})

	select {
	case r := <-done:
		return r.value, r.ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}
