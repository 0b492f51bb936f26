package viewport

import "errors"

var (
	// ErrPreconditionNotMet reports that the parent or content size is not
	// known. The engine treats it as a no-op and never returns it.
	ErrPreconditionNotMet = errors.New("viewport: content or parent unavailable")

	// ErrInvalidSize reports a non-positive or non-finite dimension.
	ErrInvalidSize = errors.New("viewport: invalid size")

	// ErrOutOfRangeInput reports a gesture payload outside its legal range.
	ErrOutOfRangeInput = errors.New("viewport: input out of range")
)
