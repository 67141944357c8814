package models

import (
	"bytes"
	"encoding/json"
)

// Field is a patch slot that tells "not supplied" apart from "supplied as null".
// The zero value is not supplied.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Value returns a supplied slot holding v.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a supplied slot that clears the target.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// IsNull reports a supplied null.
func (f Field[T]) IsNull() bool {
	return f.Set && f.Value == nil
}

// UnmarshalJSON is only invoked for keys present in the payload, which is what marks the slot as supplied.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.Value)
}
