package prefabs

import (
	"fmt"
	"sync"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/walkabout/behavior"
	"github.com/milk9111/walkabout/behavior/script"
)

var (
	scriptMu    sync.Mutex
	scriptCache = map[string]script.Script{}
)

// BuildBody returns the program body for a walker spec and a short
// description of where it came from.
func BuildBody(spec *WalkerSpec) (behavior.Body, string, error) {
	if spec == nil {
		return nil, "", fmt.Errorf("%w: nil spec", ErrInvalidSpec)
	}
	if err := spec.Validate(); err != nil {
		return nil, "", err
	}
	b := spec.Behavior
	if b.Script == "" {
		return PathBody(b), "path", nil
	}

	s, err := compiledScript(b.Script)
	if err != nil {
		return nil, "", err
	}
	origin := cp.Vector{X: spec.Transform.X, Y: spec.Transform.Y}
	return s.Body(script.Options{DefaultSpeed: b.Speed, Origin: origin}), cleanScriptPath(b.Script), nil
}

// PathBody walks every displacement of b.Path in order, pausing after each
// leg when b.Pause is set.
func PathBody(b BehaviorSpec) behavior.Body {
	path := append([]PointSpec(nil), b.Path...)
	rounds := b.Repeat
	if rounds <= 0 {
		rounds = 1
	}
	return func(y *behavior.Yielder) {
		log := y.Logger()
		for round := 0; b.Loop || round < rounds; round++ {
			for i, d := range path {
				log.Info("starting walk", zap.Int("leg", i), zap.Int("round", round))
				if !y.Walk(d.X, d.Y, b.Speed) {
					return
				}
				if b.Pause > 0 && !y.Wait(b.Pause) {
					return
				}
			}
		}
		log.Info("finished walking")
	}
}

// ForgetScript drops a cached compiled script so the next build reloads it.
func ForgetScript(name string) {
	scriptMu.Lock()
	defer scriptMu.Unlock()
	delete(scriptCache, cleanScriptPath(name))
}

func compiledScript(name string) (script.Script, error) {
	clean := cleanScriptPath(name)

	scriptMu.Lock()
	defer scriptMu.Unlock()
	if s, ok := scriptCache[clean]; ok {
		return s, nil
	}

	src, err := LoadScript(clean)
	if err != nil {
		return nil, fmt.Errorf("prefabs: load script %s: %w", clean, err)
	}
	s, err := script.Compile(clean, src)
	if err != nil {
		return nil, err
	}
	scriptCache[clean] = s
	return s, nil
}
