package bus

import "errors"

var (
	// ErrBusClosed is returned once Close has been called.
	ErrBusClosed = errors.New("bus is closed")

	// ErrEmptyKind is returned by Fire and Subscribe for a message or
	// subscription with no kind tag.
	ErrEmptyKind = errors.New("message kind is empty")
)
