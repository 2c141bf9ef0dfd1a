package database

import (
	"errors"
	"fmt"
)

// Set of error variables the engine uses to reject input. Every one of them
// is recoverable: the offending value is discarded and the node moves on.
var (
	// ErrValidation is the root of every signature, proof of work and
	// chain linkage failure.
	ErrValidation = errors.New("validation failure")

	// ErrDuplicate is the root of every already seen transaction or block.
	ErrDuplicate = errors.New("duplicate entry")

	// ErrChainForked is returned when a block doesn't link to our latest
	// block. The node needs to resync with its peers.
	ErrChainForked = fmt.Errorf("%w: blockchain forked, start resync", ErrValidation)
)

// IsRejected reports whether the error means the input was invalid or a
// duplicate and was discarded.
func IsRejected(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicate)
}

// validationErr constructs an error wrapping ErrValidation.
func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
