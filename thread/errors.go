package thread

import "errors"

var (
	// ErrNameTooLong is returned by Create when name exceeds the
	// scheduler's configured name bound (see WithStackNameLimit).
	ErrNameTooLong = errors.New("thread: name exceeds bound")

	// ErrNilEntry is returned by Create when fn is nil.
	ErrNilEntry = errors.New("thread: nil entry function")

	// ErrAlreadyRunning is returned by Run if called more than once on the
	// same Scheduler.
	ErrAlreadyRunning = errors.New("thread: scheduler already run")
)
