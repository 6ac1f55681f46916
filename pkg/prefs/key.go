package prefs

// Key is a typed handle to a named preference slot.
// Only the name reaches the backend: two keys with the same name and different
// value types address the same slot.
type Key[T any] struct {
	name string
}

// NewKey creates a typed key for the given name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the storage name of the key.
func (k Key[T]) Name() string { return k.name }

// String implements fmt.Stringer.
func (k Key[T]) String() string { return k.name }

// SecureKey addresses a slot in a secure store. Secure stores only hold strings.
type SecureKey = Key[string]

// NewSecureKey creates a key for a secure store.
func NewSecureKey(name string) SecureKey {
	return NewKey[string](name)
}
