package system

import (
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/walkabout/behavior"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
)

// BehaviorSystem is the tick loop for action drivers. Every tick it steps each
// entity's driver with the clock's delta and applies the returned effect to
// the entity's kinematic body, or to its transform when it has none.
//
// With more than one worker, drivers are stepped on a pond pool; effects are
// still applied on the caller's goroutine once every driver has stepped.
type BehaviorSystem struct {
	clock    Clock
	log      *zap.Logger
	metrics  *BehaviorMetrics
	pool     pond.Pool
	outcomes []stepOutcome
}

type BehaviorOption func(*BehaviorSystem)

func WithLogger(log *zap.Logger) BehaviorOption {
	return func(s *BehaviorSystem) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMetrics(m *BehaviorMetrics) BehaviorOption {
	return func(s *BehaviorSystem) { s.metrics = m }
}

// WithWorkers steps drivers on a pool of n workers. n <= 1 keeps stepping
// inline.
func WithWorkers(n int) BehaviorOption {
	return func(s *BehaviorSystem) {
		if n > 1 {
			s.pool = pond.NewPool(n)
		}
	}
}

func NewBehaviorSystem(clock Clock, opts ...BehaviorOption) *BehaviorSystem {
	s := &BehaviorSystem{clock: clock, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = EbitenClock{}
	}
	return s
}

// Close stops the worker pool, if any.
func (s *BehaviorSystem) Close() {
	if s != nil && s.pool != nil {
		s.pool.StopAndWait()
	}
}

type stepOutcome struct {
	entity ecs.Entity
	comp   *component.Behavior
	result behavior.StepResult
	err    error
}

func (s *BehaviorSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	dt := s.clock.Delta()
	if err := behavior.ValidateDelta(dt); err != nil {
		s.metrics.invalidTick()
		s.log.Warn("skipping behavior tick", zap.Error(err))
		return
	}

	entities := w.Query(component.BehaviorComponent.Kind())
	s.outcomes = s.outcomes[:0]
	for _, e := range entities {
		comp, ok := ecs.Get(w, e, component.BehaviorComponent)
		if !ok || comp.Driver == nil {
			continue
		}
		s.outcomes = append(s.outcomes, stepOutcome{entity: e, comp: comp})
	}

	if s.pool != nil && len(s.outcomes) > 1 {
		group := s.pool.NewGroup()
		for i := range s.outcomes {
			o := &s.outcomes[i]
			group.Submit(func() { stepDriver(o, dt) })
		}
		if err := group.Wait(); err != nil {
			s.log.Error("behavior workers failed", zap.Error(err))
		}
	} else {
		for i := range s.outcomes {
			stepDriver(&s.outcomes[i], dt)
		}
	}

	active := 0
	for i := range s.outcomes {
		s.apply(w, &s.outcomes[i])
		if s.outcomes[i].comp.Driver.State() == behavior.DriverActive {
			active++
		}
	}
	s.metrics.setActive(active)
}

// stepDriver never lets a panicking program take the tick down with it; the
// failure is reported by apply.
func stepDriver(o *stepOutcome, dt float64) {
	defer func() {
		if r := recover(); r != nil {
			o.err = fmt.Errorf("behavior step panicked: %v", r)
			o.result = behavior.StepResult{}
			_ = o.comp.Driver.Close()
		}
	}()
	o.result, o.err = o.comp.Driver.Step(dt)
}

func (s *BehaviorSystem) apply(w *ecs.World, o *stepOutcome) {
	log := s.log.With(zap.Stringer("entity", o.entity), zap.String("behavior", o.comp.Name))
	if o.err != nil {
		s.metrics.stepFailed()
		log.Error("behavior step failed", zap.Error(o.err))
	}

	r := o.result
	if !r.Idle() {
		kind := r.Action.Request().Kind()
		if r.Started {
			s.metrics.started(kind)
			log.Debug("action started", zap.String("kind", kind), zap.String("request", fmt.Sprint(r.Action.Request())))
			pushActionEvent(w, o.entity, ecs.ActionStarted, kind, position(w, o.entity))
		}
		pos := move(w, o.entity, r.Effect)
		if r.Completed {
			s.metrics.completed(kind)
			log.Debug("action finished", zap.String("kind", kind), zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
			pushActionEvent(w, o.entity, ecs.ActionFinished, kind, pos)
		}
	}

	if !o.comp.Reported && o.comp.Driver.Done() {
		o.comp.Reported = true
		s.metrics.programFinished()
		pos := position(w, o.entity)
		log.Info("behavior finished", zap.Float64("x", pos.X), zap.Float64("y", pos.Y))
		pushActionEvent(w, o.entity, ecs.ProgramDone, "", pos)
	}
}

func pushActionEvent(w *ecs.World, e ecs.Entity, phase ecs.ActionPhase, kind string, pos cp.Vector) {
	w.Events().Push(ecs.Event{
		Type: ecs.ActionEventType,
		Data: ecs.ActionEvent{Entity: e, Phase: phase, Kind: kind, X: pos.X, Y: pos.Y},
	})
}

func move(w *ecs.World, e ecs.Entity, delta cp.Vector) cp.Vector {
	if kb, ok := ecs.Get(w, e, component.KinematicBodyComponent); ok && kb.Body != nil {
		p := kb.Body.Position().Add(delta)
		kb.Body.SetPosition(p)
		if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
			t.X, t.Y = p.X, p.Y
		}
		return p
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
		t.Translate(delta)
		return t.Position()
	}
	return cp.Vector{}
}

func position(w *ecs.World, e ecs.Entity) cp.Vector {
	if kb, ok := ecs.Get(w, e, component.KinematicBodyComponent); ok && kb.Body != nil {
		return kb.Body.Position()
	}
	if t, ok := ecs.Get(w, e, component.TransformComponent); ok {
		return t.Position()
	}
	return cp.Vector{}
}
