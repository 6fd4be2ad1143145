package domain

import "errors"

var (
	// ErrUnrecognizedFormat indicates the input matches no known signature.
	ErrUnrecognizedFormat = errors.New("unrecognized format")

	// ErrCorruptStructure indicates the input matches a signature but violates
	// that format's structural invariants.
	ErrCorruptStructure = errors.New("corrupt structure")

	// ErrUnrepresentable indicates a valid model holds a value outside the
	// target schema's representable range.
	ErrUnrepresentable = errors.New("unrepresentable value")

	// ErrIOFailure indicates the input stream could not be fully read.
	ErrIOFailure = errors.New("input read failure")
)
