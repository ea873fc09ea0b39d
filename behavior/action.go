// Package behavior sequences per-entity actions from suspendable programs.
//
// A Program runs a user Body as a coroutine that yields Requests. A Driver
// owns one Program plus at most one in-flight Action and is stepped once per
// tick by the simulation loop.
package behavior

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/walkabout/common"
)

// Request describes the next action a program wants performed. The set of
// requests is closed: Walk and Wait.
type Request interface {
	Kind() string
	start() Action
}

// Action is the live, progress-tracking counterpart of a Request. It is owned
// by exactly one Driver while in flight.
type Action interface {
	// Advance moves the action forward by dt seconds and returns the
	// displacement to apply to the target this tick.
	Advance(dt float64) (effect cp.Vector, completed bool)
	Progress() float64
	Done() bool
	Request() Request
}

// ValidateDelta rejects tick deltas that are negative, NaN or infinite.
func ValidateDelta(dt float64) error {
	if dt < 0 || !common.Finite(dt) {
		return fmt.Errorf("%w: %v", ErrInvalidDelta, dt)
	}
	return nil
}

func sanitizeDelta(dt float64) float64 {
	if ValidateDelta(dt) != nil {
		return 0
	}
	return dt
}

// Walk moves the target by Displacement at Speed units per second.
type Walk struct {
	Speed        float64
	Displacement cp.Vector
}

func (Walk) Kind() string { return "walk" }

func (r Walk) start() Action { return &walkAction{req: r} }

func (r Walk) String() string {
	return fmt.Sprintf("walk(%.2f, %.2f @ %.2f)", r.Displacement.X, r.Displacement.Y, r.Speed)
}

// completionEpsilon absorbs progress creep from summing many small steps.
const completionEpsilon = 1e-9

type walkAction struct {
	req      Walk
	progress float64
	emitted  cp.Vector
}

func (a *walkAction) Request() Request  { return a.req }
func (a *walkAction) Progress() float64 { return a.progress }
func (a *walkAction) Done() bool        { return a.progress >= 1 }

func (a *walkAction) degenerate(length float64) bool {
	return length == 0 || !common.Finite(length) || !common.Finite(a.req.Speed) || a.req.Speed <= 0
}

func (a *walkAction) Advance(dt float64) (cp.Vector, bool) {
	if a.Done() {
		return cp.Vector{}, true
	}
	length := a.req.Displacement.Length()
	if a.degenerate(length) {
		a.progress = 1
		return cp.Vector{}, true
	}

	remaining := (1 - a.progress) * length
	step := sanitizeDelta(dt) * a.req.Speed
	if step >= remaining || remaining-step <= completionEpsilon*length {
		// The final tick emits whatever is left so the legs sum to the
		// displacement exactly.
		a.progress = 1
		effect := a.req.Displacement.Sub(a.emitted)
		a.emitted = a.req.Displacement
		return effect, true
	}

	a.progress = math.Min(common.Clamp01(a.progress+step/length), math.Nextafter(1, 0))
	effect := a.req.Displacement.Mult(step / length)
	a.emitted = a.emitted.Add(effect)
	return effect, false
}

// Wait idles for Duration seconds without moving the target.
type Wait struct {
	Duration float64
}

func (Wait) Kind() string { return "wait" }

func (r Wait) start() Action { return &waitAction{req: r} }

func (r Wait) String() string { return fmt.Sprintf("wait(%.2fs)", r.Duration) }

type waitAction struct {
	req     Wait
	elapsed float64
	done    bool
}

func (a *waitAction) Request() Request { return a.req }
func (a *waitAction) Done() bool       { return a.done }

func (a *waitAction) Progress() float64 {
	if a.done {
		return 1
	}
	return common.Clamp01(a.elapsed / a.req.Duration)
}

func (a *waitAction) Advance(dt float64) (cp.Vector, bool) {
	if a.done {
		return cp.Vector{}, true
	}
	if !common.Finite(a.req.Duration) || a.req.Duration <= 0 {
		a.done = true
		return cp.Vector{}, true
	}
	a.elapsed += sanitizeDelta(dt)
	if a.elapsed >= a.req.Duration {
		a.done = true
	}
	return cp.Vector{}, a.done
}
