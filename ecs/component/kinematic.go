package component

import "github.com/jakecoffman/cp"

// KinematicBody moves a Chipmunk kinematic body instead of the transform.
// The physics system copies the body position back into the transform.
type KinematicBody struct {
	Body  *cp.Body
	Space *cp.Space
}

// Close removes the body from its space.
func (k *KinematicBody) Close() error {
	if k == nil || k.Body == nil || k.Space == nil {
		return nil
	}
	k.Space.RemoveBody(k.Body)
	k.Space = nil
	return nil
}

var KinematicBodyComponent = NewComponent[KinematicBody]()
