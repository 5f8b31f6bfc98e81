package bus

import "errors"

// Sentinel errors returned by registry operations.
var (
	// ErrDuplicateListener is returned by Register when the id is taken.
	ErrDuplicateListener = errors.New("listener id already registered")
	// ErrListenerActive is returned by Unregister when the listener has not
	// reached Stopped yet.
	ErrListenerActive = errors.New("listener has not stopped")
	// ErrBusClosed is returned by Register once Close has been called.
	ErrBusClosed = errors.New("bus is closed")
)
