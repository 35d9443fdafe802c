package sparse

import "errors"

var (
	// ErrInvalidArgument indicates an unsupported pattern, a non-positive
	// size or an out-of-range row entry.
	ErrInvalidArgument = errors.New("sparse: invalid argument")

	// ErrCommitted indicates a builder was used after Commit.
	ErrCommitted = errors.New("sparse: builder already committed")

	// ErrMalformed indicates a matrix whose arrays violate the CRS invariants.
	ErrMalformed = errors.New("sparse: malformed CRS matrix")
)
