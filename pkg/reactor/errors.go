package reactor

import "errors"

var (
	// ErrBackpressure is returned by Execute when the loop's mailbox
	// is full. The caller is never blocked.
	ErrBackpressure = errors.New("reactor: mailbox is full")

	// ErrNotRunning is returned by Execute before Start or after Stop.
	ErrNotRunning = errors.New("reactor: loop is not running")
)
