package behavior

import (
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// DriverState is the coarse state of a Driver.
type DriverState uint8

const (
	// DriverIdle has no action in flight and a program that may yield more.
	DriverIdle DriverState = iota
	// DriverActive holds a partially progressed action.
	DriverActive
	// DriverDone has an exhausted program and nothing in flight.
	DriverDone
)

func (s DriverState) String() string {
	switch s {
	case DriverIdle:
		return "idle"
	case DriverActive:
		return "active"
	case DriverDone:
		return "done"
	default:
		return "unknown"
	}
}

// Driver adapts one Program to the tick loop. It holds at most one in-flight
// Action and never resumes a finished program.
type Driver struct {
	program *Program
	current Action
}

// NewDriver creates a driver around a fresh program for body.
func NewDriver(body Body, log *zap.Logger) *Driver {
	return &Driver{program: NewProgram(body, log)}
}

// TakeAction removes and returns the in-flight action, or resumes the program
// for a new one. It returns false once the program is exhausted.
func (d *Driver) TakeAction() (Action, bool) {
	if d.current != nil {
		a := d.current
		d.current = nil
		return a, true
	}
	if d.program.Done() {
		return nil, false
	}
	req, ok := d.program.Resume()
	if !ok {
		return nil, false
	}
	return req.start(), true
}

// ContinueAction stores a partially progressed action for the next
// TakeAction.
func (d *Driver) ContinueAction(a Action) {
	if a == nil {
		return
	}
	if a.Done() {
		panic(ErrActionCompleted)
	}
	if d.current != nil {
		panic(ErrActionPending)
	}
	d.current = a
}

// Current returns the stored in-flight action without taking it.
func (d *Driver) Current() (Action, bool) {
	return d.current, d.current != nil
}

func (d *Driver) State() DriverState {
	switch {
	case d.current != nil:
		return DriverActive
	case d.program.Done():
		return DriverDone
	default:
		return DriverIdle
	}
}

// Done reports whether the program is exhausted and nothing is in flight.
func (d *Driver) Done() bool {
	return d.State() == DriverDone
}

// Close drops the in-flight action and releases the program.
func (d *Driver) Close() error {
	d.current = nil
	d.program.Close()
	return nil
}

// StepResult reports what one tick did to a driver.
type StepResult struct {
	Action    Action
	Effect    cp.Vector
	Started   bool
	Completed bool
}

// Idle reports whether no action was progressed this tick.
func (r StepResult) Idle() bool {
	return r.Action == nil
}

// Step runs one tick: take an action, advance it by dt, and hand it back if
// it is still in flight.
func (d *Driver) Step(dt float64) (StepResult, error) {
	if err := ValidateDelta(dt); err != nil {
		return StepResult{}, err
	}
	started := d.current == nil
	a, ok := d.TakeAction()
	if !ok {
		return StepResult{}, nil
	}
	effect, completed := a.Advance(dt)
	if !completed {
		d.ContinueAction(a)
	}
	return StepResult{Action: a, Effect: effect, Started: started, Completed: completed}, nil
}
