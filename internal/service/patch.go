package service

import (
	"bytes"
	"encoding/json"
)

// Nullable is a PATCH field for a nullable column. An absent key leaves the
// column alone, an explicit null clears it, any other value sets it.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// SetTo returns a Nullable carrying v
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns a Nullable that clears the column
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// apply copies the patched value into dst when the key was present
func (n Nullable[T]) apply(dst **T) {
	if n.Set {
		*dst = n.Value
	}
}
