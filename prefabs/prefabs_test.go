package prefabs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/walkabout/behavior"
)

func drain(t *testing.T, body behavior.Body, limit int) []behavior.Request {
	t.Helper()
	p := behavior.NewProgram(body, nil)
	defer p.Close()
	var out []behavior.Request
	for len(out) < limit {
		req, ok := p.Resume()
		if !ok {
			break
		}
		out = append(out, req)
	}
	return out
}

func TestEmbeddedWalkersLoad(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			spec, err := LoadWalkerSpec(name)
			require.NoError(t, err)
			assert.NotEmpty(t, spec.Name)

			body, source, err := BuildBody(spec)
			require.NoError(t, err)
			assert.NotNil(t, body)
			assert.NotEmpty(t, source)
			assert.NotEmpty(t, drain(t, body, 64))
		})
	}
}

func TestWalkerSpecIsTheSquare(t *testing.T) {
	spec, err := LoadWalkerSpec("walker")
	require.NoError(t, err)
	assert.Equal(t, "walker", spec.Name)
	assert.Equal(t, 320.0, spec.Transform.X)

	body, source, err := BuildBody(spec)
	require.NoError(t, err)
	assert.Equal(t, "path", source)
	assert.Equal(t, []behavior.Request{
		behavior.Walk{Speed: 80, Displacement: cp.Vector{X: 200}},
		behavior.Walk{Speed: 80, Displacement: cp.Vector{Y: 200}},
		behavior.Walk{Speed: 80, Displacement: cp.Vector{X: -200}},
		behavior.Walk{Speed: 80, Displacement: cp.Vector{Y: -200}},
	}, drain(t, body, 64))
}

func TestPathBodyPauseAndRepeat(t *testing.T) {
	body := PathBody(BehaviorSpec{
		Speed:  10,
		Pause:  0.5,
		Repeat: 2,
		Path:   []PointSpec{{X: 1}, {Y: 1}},
	})
	got := drain(t, body, 64)
	require.Len(t, got, 8)
	assert.Equal(t, behavior.Wait{Duration: 0.5}, got[1])
	assert.Equal(t, behavior.Walk{Speed: 10, Displacement: cp.Vector{X: 1}}, got[4])
}

func TestPathBodyLoopRunsUntilClosed(t *testing.T) {
	body := PathBody(BehaviorSpec{Speed: 10, Loop: true, Path: []PointSpec{{X: 1}}})
	assert.Len(t, drain(t, body, 50), 50)
}

func TestScriptedWalkersUseSpeedAsDefault(t *testing.T) {
	spec, err := LoadWalkerSpec("patroller.yaml")
	require.NoError(t, err)
	body, source, err := BuildBody(spec)
	require.NoError(t, err)
	assert.Equal(t, "scripts/patrol.tengo", source)

	got := drain(t, body, 64)
	require.Len(t, got, 15)
	assert.Equal(t, behavior.Walk{Speed: 120, Displacement: cp.Vector{X: 240}}, got[0])
	assert.Equal(t, behavior.Wait{Duration: 1}, got[4])
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		spec WalkerSpec
	}{
		{"empty", WalkerSpec{}},
		{"both", WalkerSpec{Behavior: BehaviorSpec{Speed: 1, Script: "a.lua", Path: []PointSpec{{X: 1}}}}},
		{"no_speed", WalkerSpec{Behavior: BehaviorSpec{Path: []PointSpec{{X: 1}}}}},
		{"negative_repeat", WalkerSpec{Behavior: BehaviorSpec{Speed: 1, Repeat: -1, Path: []PointSpec{{X: 1}}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.spec.Validate(), ErrInvalidSpec)
			_, _, err := BuildBody(&tc.spec)
			assert.Error(t, err)
		})
	}
}

func TestMissingScript(t *testing.T) {
	spec := &WalkerSpec{Behavior: BehaviorSpec{Script: "scripts/nope.tengo"}}
	_, _, err := BuildBody(spec)
	assert.Error(t, err)
}

func TestCleanPaths(t *testing.T) {
	assert.Equal(t, "scripts/patrol.tengo", cleanScriptPath("prefabs/scripts/patrol.tengo"))
	assert.Equal(t, "scripts/patrol.tengo", cleanScriptPath("patrol.tengo"))
	assert.Equal(t, "walker.yaml", cleanPrefabPath("prefabs/walker"))
	assert.Equal(t, "walker.yml", cleanPrefabPath("walker.yml"))
}

func TestDiskOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	prev := DiskDir
	DiskDir = dir
	t.Cleanup(func() { DiskDir = prev })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "walker.yaml"), []byte(`
name: walker
behavior:
  speed: 5
  path:
    - { x: 1, y: 2 }
`), 0o644))

	spec, err := LoadWalkerSpec("walker.yaml")
	require.NoError(t, err)
	assert.Equal(t, 5.0, spec.Behavior.Speed)
	_, ok := ModTime("walker.yaml")
	assert.True(t, ok)
}

func TestChangeAffects(t *testing.T) {
	patroller, err := LoadWalkerSpec("patroller")
	require.NoError(t, err)
	walker, err := LoadWalkerSpec("walker")
	require.NoError(t, err)

	script := Change{Path: "/tmp/prefabs/scripts/patrol.tengo", Script: true}
	assert.True(t, script.Affects("patroller", patroller))
	assert.False(t, script.Affects("walker", walker))

	spec := Change{Path: "/tmp/prefabs/walker.yaml"}
	assert.True(t, spec.Affects("walker", walker))
	assert.True(t, spec.Affects("prefabs/walker.yaml", walker))
	assert.False(t, spec.Affects("patroller.yaml", patroller))
}

func TestWatcherReportsEdits(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "patrol.tengo"), []byte("x"), 0o644))

	select {
	case ch := <-w.Events:
		assert.True(t, ch.Script)
		assert.Equal(t, "scripts/patrol.tengo", ch.Name())
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event")
	}
}
