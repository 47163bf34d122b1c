package core

import (
	"errors"
)

var (
	ErrBusy            = errors.New("a previous send is still in flight")
	ErrNotInitialized  = errors.New("engine is not initialized")
	ErrShutdownTimeout = errors.New("timed out waiting for the in-flight send")
	ErrTransport       = errors.New("transport failure")
	ErrAdapterData     = errors.New("malformed adapter data")
	ErrInvalidSettings = errors.New("invalid settings")
	ErrClosed          = errors.New("already closed")
)
