package models

import (
	"bytes"
	"encoding/json"
)

// Optional is a tri-state JSON field: absent, explicitly null, or a value.
// The zero value is absent.
type Optional[T any] struct {
	set   bool
	null  bool
	value T
}

// Some returns an Optional carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{set: true, value: v}
}

// Null returns an Optional that is present and null.
func Null[T any]() Optional[T] {
	return Optional[T]{set: true, null: true}
}

// Set reports whether the field appeared in the payload.
func (o Optional[T]) Set() bool { return o.set }

// IsNull reports whether the field appeared as an explicit null.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Value returns the carried value and whether one is present.
func (o Optional[T]) Value() (T, bool) {
	return o.value, o.set && !o.null
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.null = true
		var zero T
		o.value = zero
		return nil
	}
	o.null = false
	return json.Unmarshal(data, &o.value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
