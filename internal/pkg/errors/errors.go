package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMissingRequiredField marks a record that cannot be stored or decoded
	// because a required schema field is absent.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrStoreUnavailable marks operations attempted against a catalog store
	// whose underlying engine never came up.
	ErrStoreUnavailable = errors.New("catalog store unavailable")
	// ErrEmptySnapshot marks a serialized snapshot of zero bytes; writing one
	// would clobber the last good snapshot, so it is always discarded.
	ErrEmptySnapshot = errors.New("snapshot serialized to zero bytes")
)
