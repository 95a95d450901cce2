package stream

import "github.com/go-faster/errors"

var (
	// ErrTypeMismatch is returned when a field holds a value of the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrKeyNotFound is returned when a required field is absent from a tuple.
	ErrKeyNotFound = errors.New("key not found")

	// ErrDomain is returned when a reduction cannot be applied to its
	// accumulator or input.
	ErrDomain = errors.New("domain error")
)
