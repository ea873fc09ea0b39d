package behavior

import "errors"

var (
	// ErrResumeFinished is the panic value raised when a finished program is
	// resumed. Drivers must check Done before every resume.
	ErrResumeFinished = errors.New("behavior: resume of finished program")
	// ErrActionCompleted is the panic value raised when a completed action is
	// handed back to a driver.
	ErrActionCompleted = errors.New("behavior: continue with completed action")
	// ErrActionPending is the panic value raised when a driver already holds an
	// in-flight action and another one is stored.
	ErrActionPending = errors.New("behavior: driver already holds an action")
	// ErrNilRequest is the panic value raised when a program yields nil.
	ErrNilRequest = errors.New("behavior: nil action request")
	// ErrStopped is returned to script VMs whose program was closed while
	// suspended, so the interpreter unwinds.
	ErrStopped = errors.New("behavior: program stopped")
	// ErrInvalidDelta rejects negative or non-finite tick deltas.
	ErrInvalidDelta = errors.New("behavior: invalid tick delta")
)
