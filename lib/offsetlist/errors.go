package offsetlist

import "errors"

var (
	// ErrOutOfRange indicates that an offset is outside of the list or the container.
	ErrOutOfRange = errors.New("offset out of range")

	// ErrNegativeSize indicates that a container would end up with a negative size.
	ErrNegativeSize = errors.New("container size must not be negative")

	// ErrSentinel indicates an operation that is not allowed on the sentinel container.
	ErrSentinel = errors.New("operation not allowed on the sentinel container")

	// ErrRemoved indicates that the container was already removed from its list.
	ErrRemoved = errors.New("container was removed")

	// ErrNoOperator indicates that Evaluate was called on a list without an operator.
	ErrNoOperator = errors.New("no associative operator was provided")
)
