package entity

import (
	"image/color"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/colornames"

	"github.com/milk9111/walkabout/behavior"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
	"github.com/milk9111/walkabout/prefabs"
)

func TestNewWalkerFromPath(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := ecs.NewWorld()
	spec := &prefabs.WalkerSpec{
		Name:      "square",
		Transform: prefabs.TransformSpec{X: 10, Y: 20},
		Behavior: prefabs.BehaviorSpec{
			Speed: 80,
			Path:  []prefabs.PointSpec{{X: 200}, {Y: 200}, {X: -200}, {Y: -200}},
		},
	}

	e, err := NewWalker(w, spec, WalkerOptions{Log: zap.New(core)})
	require.NoError(t, err)

	tr, ok := ecs.Get(w, e, component.TransformComponent)
	require.True(t, ok)
	assert.Equal(t, component.Transform{X: 10, Y: 20}, *tr)

	b, ok := ecs.Get(w, e, component.BehaviorComponent)
	require.True(t, ok)
	assert.Equal(t, "square", b.Name)
	assert.Equal(t, behavior.DriverIdle, b.Driver.State())

	a, ok := b.Driver.TakeAction()
	require.True(t, ok)
	assert.Equal(t, behavior.Walk{Speed: 80, Displacement: cp.Vector{X: 200}}, a.Request())

	assert.False(t, ecs.Has(w, e, component.SpriteComponent))
	assert.False(t, ecs.Has(w, e, component.KinematicBodyComponent))
	assert.Equal(t, 1, logs.FilterMessage("spawned walker").Len())
}

func TestNewWalkerKinematic(t *testing.T) {
	space := cp.NewSpace()
	w := ecs.NewWorld()
	spec := &prefabs.WalkerSpec{
		Name:      "kin",
		Transform: prefabs.TransformSpec{X: 5, Y: 6},
		Kinematic: true,
		Behavior:  prefabs.BehaviorSpec{Speed: 1, Path: []prefabs.PointSpec{{X: 1}}},
	}

	_, err := NewWalker(w, spec, WalkerOptions{})
	require.Error(t, err)
	assert.Empty(t, w.Entities())

	e, err := NewWalker(w, spec, WalkerOptions{Space: space})
	require.NoError(t, err)
	kb, ok := ecs.Get(w, e, component.KinematicBodyComponent)
	require.True(t, ok)
	assert.Equal(t, cp.Vector{X: 5, Y: 6}, kb.Body.Position())
	assert.True(t, space.ContainsBody(kb.Body))

	w.DestroyEntity(e)
	assert.False(t, space.ContainsBody(kb.Body))
}

func TestNewWalkerRejectsBadSpec(t *testing.T) {
	w := ecs.NewWorld()
	_, err := NewWalker(w, &prefabs.WalkerSpec{Name: "nowhere", Behavior: prefabs.BehaviorSpec{Script: "missing.tengo"}}, WalkerOptions{})
	require.Error(t, err)
	assert.Empty(t, w.Entities())
}

func TestSpawnEmbeddedWalkers(t *testing.T) {
	w := ecs.NewWorld()
	ents, err := SpawnWalkers(w, []string{"walker", "pacer.yaml"}, WalkerOptions{})
	require.NoError(t, err)
	require.Len(t, ents, 2)

	b, _ := ecs.Get(w, ents[0], component.BehaviorComponent)
	assert.Equal(t, "walker", b.Name)
	assert.Equal(t, "path", b.Source)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("")
	require.NoError(t, err)
	assert.Equal(t, colornames.White, c)

	c, err = ParseColor(" Tomato ")
	require.NoError(t, err)
	assert.Equal(t, colornames.Tomato, c)

	c, err = ParseColor("#102030")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}, c)

	c, err = ParseColor("#10203040")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	_, err = ParseColor("#12")
	assert.Error(t, err)
	_, err = ParseColor("notacolor")
	assert.Error(t, err)
}
