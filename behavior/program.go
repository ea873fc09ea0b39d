package behavior

import (
	"iter"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

// Body is a behavior routine. It runs sequential logic and suspends at every
// Yielder.Yield until the driver asks for the next action.
type Body func(y *Yielder)

// Yielder is the suspension primitive handed to a Body.
type Yielder struct {
	yield   func(Request) bool
	log     *zap.Logger
	stopped bool
}

// Yield suspends the program and hands r to the driver. It returns false once
// the program has been closed; the body should return promptly after that.
func (y *Yielder) Yield(r Request) bool {
	if r == nil {
		panic(ErrNilRequest)
	}
	if y.stopped {
		return false
	}
	if !y.yield(r) {
		y.stopped = true
		return false
	}
	return true
}

// Walk yields a Walk request by (dx, dy) at speed.
func (y *Yielder) Walk(dx, dy, speed float64) bool {
	return y.Yield(Walk{Speed: speed, Displacement: cp.Vector{X: dx, Y: dy}})
}

// Wait yields a Wait request for seconds.
func (y *Yielder) Wait(seconds float64) bool {
	return y.Yield(Wait{Duration: seconds})
}

// Stopped reports whether the owning program was closed.
func (y *Yielder) Stopped() bool {
	return y.stopped
}

// Logger returns the logger injected into the program.
func (y *Yielder) Logger() *zap.Logger {
	return y.log
}

type programState uint8

const (
	programNotStarted programState = iota
	programSuspended
	programDone
)

func (s programState) String() string {
	switch s {
	case programNotStarted:
		return "not-started"
	case programSuspended:
		return "suspended"
	case programDone:
		return "done"
	default:
		return "unknown"
	}
}

// Program is a single-shot coroutine over a Body. It is not safe for
// concurrent use; its Driver is the only caller.
type Program struct {
	body  Body
	log   *zap.Logger
	state programState
	next  func() (Request, bool)
	stop  func()
}

// NewProgram wraps body. A nil body finishes on the first Resume; a nil log
// is replaced with a no-op logger.
func NewProgram(body Body, log *zap.Logger) *Program {
	if log == nil {
		log = zap.NewNop()
	}
	return &Program{body: body, log: log}
}

// Resume runs the body until its next yield or until it returns. Resuming a
// program that already reported completion panics with ErrResumeFinished.
func (p *Program) Resume() (Request, bool) {
	switch p.state {
	case programDone:
		panic(ErrResumeFinished)
	case programNotStarted:
		p.start()
	}

	req, ok := p.pull()
	if !ok {
		p.finish()
		return nil, false
	}
	p.state = programSuspended
	return req, true
}

// Done reports whether the body has returned or the program was closed.
func (p *Program) Done() bool {
	return p.state == programDone
}

// Close releases a suspended body. The body observes Yield returning false and
// runs to its return before Close does. Close is idempotent.
func (p *Program) Close() {
	p.finish()
}

func (p *Program) start() {
	body, log := p.body, p.log
	seq := iter.Seq[Request](func(yield func(Request) bool) {
		if body == nil {
			return
		}
		body(&Yielder{yield: yield, log: log})
	})
	p.next, p.stop = iter.Pull(seq)
}

func (p *Program) pull() (Request, bool) {
	completed := false
	defer func() {
		if !completed {
			// The body panicked: the coroutine is gone, keep the state durable.
			p.finish()
		}
	}()
	req, ok := p.next()
	completed = true
	return req, ok
}

func (p *Program) finish() {
	p.state = programDone
	if p.stop != nil {
		stop := p.stop
		p.stop, p.next = nil, nil
		stop()
	}
}
