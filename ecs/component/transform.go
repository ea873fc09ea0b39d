package component

import "github.com/jakecoffman/cp"

// Transform is the target a behavior effect is applied to when the entity
// has no kinematic body.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

// Position returns the translation as a vector.
func (t *Transform) Position() cp.Vector {
	return cp.Vector{X: t.X, Y: t.Y}
}

// Translate adds delta to the position.
func (t *Transform) Translate(delta cp.Vector) {
	t.X += delta.X
	t.Y += delta.Y
}

var TransformComponent = NewComponent[Transform]()
