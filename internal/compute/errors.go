package compute

import "errors"

var (
	// ErrInvalidArgument indicates mismatched operand lengths, aliased
	// SpMV operands or an unsupported mode.
	ErrInvalidArgument = errors.New("compute: invalid argument")

	// ErrUnknownBackend indicates a backend name that is not registered.
	ErrUnknownBackend = errors.New("compute: unknown backend")
)
