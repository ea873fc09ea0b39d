package component

import "github.com/milk9111/walkabout/behavior"

// Behavior attaches an action driver to an entity. The driver lives exactly
// as long as the entity; destroying the entity closes it.
type Behavior struct {
	Name   string
	Source string
	Driver *behavior.Driver
	// Reported is set once the behavior system has announced completion.
	Reported bool
}

func (b *Behavior) Close() error {
	if b == nil || b.Driver == nil {
		return nil
	}
	return b.Driver.Close()
}

var BehaviorComponent = NewComponent[Behavior]()
