package kiosk

import (
	"encoding/json"
)

// Optional value. The zero value is None
type Option[T any] struct {
	value     T
	isPresent bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, isPresent: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

func (self Option[T]) IsSome() bool {
	return self.isPresent
}

func (self Option[T]) Get() (v T, ok bool) {
	return self.value, self.isPresent
}

func (self Option[T]) OrElse(v T) T {
	if self.isPresent {
		return self.value
	}
	return v
}

// None is serialized as null
func (self Option[T]) MarshalJSON() ([]byte, error) {
	if !self.isPresent {
		return []byte("null"), nil
	}
	return json.Marshal(self.value)
}
