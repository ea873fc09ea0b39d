package system

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
)

func TestKinematicWalkerMovesBody(t *testing.T) {
	physics := NewPhysicsSystem(FixedClock(0.1))
	w := ecs.NewWorld()
	e := spawn(t, w, 50, 50, square(200, 80))

	body := cp.NewKinematicBody()
	body.SetPosition(cp.Vector{X: 50, Y: 50})
	physics.Space().AddBody(body)
	require.NoError(t, ecs.Add(w, e, component.KinematicBodyComponent, component.KinematicBody{Body: body, Space: physics.Space()}))

	s := NewBehaviorSystem(FixedClock(0.1))
	s.Update(w)
	physics.Update(w)

	assert.InDelta(t, 58, body.Position().X, 1e-9)
	tr, _ := ecs.Get(w, e, component.TransformComponent)
	assert.InDelta(t, 58, tr.X, 1e-9)
	assert.InDelta(t, 50, tr.Y, 1e-9)

	for i := 0; i < 1000; i++ {
		s.Update(w)
		physics.Update(w)
	}
	assert.InDelta(t, 50, body.Position().X, 1e-9)
	assert.InDelta(t, 50, body.Position().Y, 1e-9)

	assert.True(t, w.DestroyEntity(e))
	assert.False(t, physics.Space().ContainsBody(body))
}

func TestPhysicsHasNoGravity(t *testing.T) {
	physics := NewPhysicsSystem(FixedClock(0.1))
	assert.Equal(t, cp.Vector{}, physics.Space().Gravity())
}
