package htmlmd

import "errors"

var (
	// ErrInvalidInputKind is returned when Convert receives neither raw
	// markup nor a parsed tree.
	ErrInvalidInputKind = errors.New("content must be raw markup or a parsed html tree")

	// ErrInternal wraps unexpected failures raised while rewriting a tree.
	ErrInternal = errors.New("internal conversion failure")

	// ErrUnknownEngine is returned by NewEngine for unrecognised names.
	ErrUnknownEngine = errors.New("unknown conversion engine")
)
