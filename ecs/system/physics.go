package system

import (
	"github.com/jakecoffman/cp"

	"github.com/milk9111/walkabout/behavior"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
)

// PhysicsSystem owns the Chipmunk space kinematic walkers live in. Walkers
// move their bodies directly; the space is stepped so anything else in it
// sees those bodies, and body positions are copied back into transforms.
type PhysicsSystem struct {
	space *cp.Space
	clock Clock
}

func NewPhysicsSystem(clock Clock) *PhysicsSystem {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})
	if clock == nil {
		clock = EbitenClock{}
	}
	return &PhysicsSystem{space: space, clock: clock}
}

func (p *PhysicsSystem) Space() *cp.Space {
	if p == nil {
		return nil
	}
	return p.space
}

func (p *PhysicsSystem) Update(w *ecs.World) {
	if p == nil || w == nil {
		return
	}

	if dt := p.clock.Delta(); dt > 0 && behavior.ValidateDelta(dt) == nil {
		p.space.Step(dt)
	}

	ecs.ForEach2(w, component.KinematicBodyComponent, component.TransformComponent, func(_ ecs.Entity, kb *component.KinematicBody, t *component.Transform) {
		if kb.Body == nil {
			return
		}
		pos := kb.Body.Position()
		t.X = pos.X
		t.Y = pos.Y
		t.Rotation = kb.Body.Angle()
	})
}
