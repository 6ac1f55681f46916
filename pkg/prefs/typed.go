package prefs

import (
	"encoding/json"
	"reflect"
)

// Get returns the value stored under k converted to T.
// It reports false when the slot is empty or the stored value cannot be converted.
func Get[T any](s Store, k Key[T]) (T, bool) {
	var target T
	val, ok := s.Value(k.Name())
	if !ok || val == nil {
		return target, false
	}

	// In-memory backends hand back the value as written
	if v, ok := val.(T); ok {
		return v, true
	}

	// JSON-backed and remote backends return decoded JSON (float64, map[string]any, ...)
	bytes, err := json.Marshal(val)
	if err != nil {
		return target, false
	}
	if err := json.Unmarshal(bytes, &target); err != nil {
		var zero T
		return zero, false
	}
	return target, true
}

// Set stores v under k. A nil pointer, map, slice, interface, func or chan removes the slot.
func Set[T any](s Store, k Key[T], v T) {
	if isNil(v) {
		s.RemoveValue(k.Name())
		return
	}
	s.SetValue(k.Name(), v)
}

// SetOptional stores *v under k, or removes the slot when v is nil.
func SetOptional[T any](s Store, k Key[T], v *T) {
	if v == nil {
		s.RemoveValue(k.Name())
		return
	}
	Set(s, k, *v)
}

// Remove deletes the slot for k. Removing an empty slot is a no-op.
func Remove[T any](s Store, k Key[T]) {
	s.RemoveValue(k.Name())
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
