package system

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/milk9111/walkabout/behavior"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
)

func square(side, speed float64) behavior.Body {
	return func(y *behavior.Yielder) {
		for _, d := range []cp.Vector{{X: side}, {Y: side}, {X: -side}, {Y: -side}} {
			if !y.Walk(d.X, d.Y, speed) {
				return
			}
		}
	}
}

func spawn(t *testing.T, w *ecs.World, x, y float64, body behavior.Body) ecs.Entity {
	t.Helper()
	e := w.CreateEntity()
	require.NoError(t, ecs.Add(w, e, component.TransformComponent, component.Transform{X: x, Y: y}))
	require.NoError(t, ecs.Add(w, e, component.BehaviorComponent, component.Behavior{
		Name:   "test",
		Driver: behavior.NewDriver(body, nil),
	}))
	return e
}

func runUntilDone(t *testing.T, w *ecs.World, s *BehaviorSystem) int {
	t.Helper()
	ticks := 0
	for {
		done := true
		ecs.ForEach(w, component.BehaviorComponent, func(_ ecs.Entity, b *component.Behavior) {
			if !b.Reported {
				done = false
			}
		})
		if done {
			return ticks
		}
		require.Less(t, ticks, 100000, "behaviors never finished")
		s.Update(w)
		ticks++
	}
}

func TestBehaviorSystemSquareWalkReturnsToStart(t *testing.T) {
	w := ecs.NewWorld()
	e := spawn(t, w, 320, 200, square(200, 80))

	s := NewBehaviorSystem(FixedClock(0.1))
	defer s.Close()
	runUntilDone(t, w, s)

	tr, ok := ecs.Get(w, e, component.TransformComponent)
	require.True(t, ok)
	assert.InDelta(t, 320, tr.X, 1e-9)
	assert.InDelta(t, 200, tr.Y, 1e-9)
}

func TestBehaviorSystemEmitsActionEvents(t *testing.T) {
	w := ecs.NewWorld()
	e := spawn(t, w, 0, 0, func(y *behavior.Yielder) {
		y.Walk(10, 0, 100)
		y.Wait(0.25)
	})

	s := NewBehaviorSystem(FixedClock(0.1))
	runUntilDone(t, w, s)

	var got []ecs.ActionEvent
	for _, evt := range w.Events().Drain() {
		require.Equal(t, ecs.ActionEventType, evt.Type)
		got = append(got, evt.Data.(ecs.ActionEvent))
	}
	require.Len(t, got, 5)
	assert.Equal(t, ecs.ActionEvent{Entity: e, Phase: ecs.ActionStarted, Kind: "walk"}, got[0])
	assert.Equal(t, ecs.ActionFinished, got[1].Phase)
	assert.InDelta(t, 10, got[1].X, 1e-9)
	assert.Equal(t, ecs.ActionStarted, got[2].Phase)
	assert.Equal(t, "wait", got[2].Kind)
	assert.Equal(t, ecs.ActionFinished, got[3].Phase)
	assert.Equal(t, ecs.ProgramDone, got[4].Phase)
}

func TestBehaviorSystemWorkersMatchInline(t *testing.T) {
	build := func() (*ecs.World, []ecs.Entity) {
		w := ecs.NewWorld()
		var ents []ecs.Entity
		for i := 0; i < 16; i++ {
			ents = append(ents, spawn(t, w, float64(i*10), 0, square(float64(20+i*5), float64(30+i))))
		}
		return w, ents
	}

	inlineWorld, inlineEnts := build()
	inline := NewBehaviorSystem(FixedClock(0.1))
	inlineTicks := runUntilDone(t, inlineWorld, inline)

	pooledWorld, pooledEnts := build()
	pooled := NewBehaviorSystem(FixedClock(0.1), WithWorkers(4))
	defer pooled.Close()
	pooledTicks := runUntilDone(t, pooledWorld, pooled)

	assert.Equal(t, inlineTicks, pooledTicks)
	for i := range inlineEnts {
		a, _ := ecs.Get(inlineWorld, inlineEnts[i], component.TransformComponent)
		b, _ := ecs.Get(pooledWorld, pooledEnts[i], component.TransformComponent)
		assert.Equal(t, *a, *b, "entity %d", i)
		assert.InDelta(t, float64(i*10), b.X, 1e-9)
		assert.InDelta(t, 0, b.Y, 1e-9)
	}
}

func TestBehaviorSystemSkipsInvalidTicks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewBehaviorMetrics(reg)
	dt := math.NaN()

	w := ecs.NewWorld()
	e := spawn(t, w, 0, 0, square(100, 50))
	s := NewBehaviorSystem(ClockFunc(func() float64 { return dt }), WithMetrics(metrics))

	s.Update(w)
	dt = -1
	s.Update(w)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.invalidTicks))
	b, _ := ecs.Get(w, e, component.BehaviorComponent)
	assert.Equal(t, behavior.DriverIdle, b.Driver.State())
	tr, _ := ecs.Get(w, e, component.TransformComponent)
	assert.Equal(t, component.Transform{}, *tr)

	dt = 0.1
	s.Update(w)
	assert.Equal(t, behavior.DriverActive, b.Driver.State())
	assert.InDelta(t, 5, tr.X, 1e-9)
}

func TestBehaviorSystemCountsActions(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewBehaviorMetrics(reg)

	w := ecs.NewWorld()
	spawn(t, w, 0, 0, square(100, 50))
	spawn(t, w, 0, 0, func(y *behavior.Yielder) { y.Wait(0.3) })

	s := NewBehaviorSystem(FixedClock(0.1), WithMetrics(metrics))
	s.Update(w)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.activeActions))

	runUntilDone(t, w, s)
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.actionsStarted.WithLabelValues("walk")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.actionsCompleted.WithLabelValues("walk")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.actionsCompleted.WithLabelValues("wait")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.programsFinished))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.activeActions))
}

func TestBehaviorSystemRecoversPanickingProgram(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewBehaviorMetrics(prometheus.NewRegistry())

	w := ecs.NewWorld()
	bad := spawn(t, w, 0, 0, func(y *behavior.Yielder) {
		y.Walk(5, 0, 50)
		panic("lost my way")
	})
	good := spawn(t, w, 0, 0, square(10, 100))

	s := NewBehaviorSystem(FixedClock(0.1), WithLogger(zap.New(core)), WithMetrics(metrics), WithWorkers(2))
	defer s.Close()
	runUntilDone(t, w, s)

	assert.Equal(t, 1, logs.FilterMessage("behavior step failed").Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.stepFailures))

	b, _ := ecs.Get(w, bad, component.BehaviorComponent)
	assert.True(t, b.Driver.Done())
	badTr, _ := ecs.Get(w, bad, component.TransformComponent)
	assert.InDelta(t, 5, badTr.X, 1e-9)
	goodTr, _ := ecs.Get(w, good, component.TransformComponent)
	assert.InDelta(t, 0, goodTr.X, 1e-9)
	assert.InDelta(t, 0, goodTr.Y, 1e-9)
}

func TestBehaviorSystemLogsFinish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := ecs.NewWorld()
	spawn(t, w, 1, 2, func(y *behavior.Yielder) { y.Walk(3, 4, 5) })

	s := NewBehaviorSystem(FixedClock(0.5), WithLogger(zap.New(core)))
	runUntilDone(t, w, s)

	entries := logs.FilterMessage("behavior finished").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.InDelta(t, 4, fields["x"], 1e-9)
	assert.InDelta(t, 6, fields["y"], 1e-9)
	assert.Equal(t, "test", fields["behavior"])
}
