package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/jakecoffman/cp"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"

	"github.com/milk9111/walkabout/behavior"
)

// Tengo scripts define `run := func(engine) { ... }`; the dispatch line below
// is appended before compiling.
const tengoDispatch = `
run(__engine)
`

var tengoModules = []string{"math", "text", "times", "rand", "fmt", "enum"}

type tengoScript struct {
	name     string
	compiled *tengo.Compiled
}

func compileTengo(name string, src []byte) (*tengoScript, error) {
	full := string(src) + "\n" + tengoDispatch
	s := tengo.NewScript([]byte(full))
	if err := s.Add("__engine", map[string]any{}); err != nil {
		return nil, fmt.Errorf("script: prepare %s: %w", name, err)
	}
	s.SetImports(stdlib.GetModuleMap(tengoModules...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	return &tengoScript{name: name, compiled: compiled}, nil
}

func (s *tengoScript) Name() string { return s.name }

func (s *tengoScript) Body(opts Options) behavior.Body {
	return func(y *behavior.Yielder) {
		log := y.Logger().With(zap.String("script", s.name))
		c := s.compiled.Clone()
		if err := c.Set("__engine", buildTengoEngine(y, log, opts)); err != nil {
			log.Error("script engine setup failed", zap.Error(err))
			return
		}
		if err := c.Run(); err != nil {
			if y.Stopped() || errors.Is(err, behavior.ErrStopped) {
				return
			}
			log.Error("script runtime error", zap.Error(err))
		}
	}
}

func buildTengoEngine(y *behavior.Yielder, log *zap.Logger, opts Options) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	pos := opts.Origin

	values["walk"] = &tengo.UserFunction{Name: "walk", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 || len(args) > 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		dx, err := tengoFloat("dx", args[0])
		if err != nil {
			return nil, err
		}
		dy, err := tengoFloat("dy", args[1])
		if err != nil {
			return nil, err
		}
		speed := opts.DefaultSpeed
		if len(args) == 3 {
			if speed, err = tengoFloat("speed", args[2]); err != nil {
				return nil, err
			}
		}
		if !y.Walk(dx, dy, speed) {
			return nil, behavior.ErrStopped
		}
		pos = pos.Add(cp.Vector{X: dx, Y: dy})
		return tengo.TrueValue, nil
	}}

	values["wait"] = &tengo.UserFunction{Name: "wait", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		seconds, err := tengoFloat("seconds", args[0])
		if err != nil {
			return nil, err
		}
		if !y.Wait(seconds) {
			return nil, behavior.ErrStopped
		}
		return tengo.TrueValue, nil
	}}

	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, arg := range args {
			parts = append(parts, objectAsString(arg))
		}
		logLine(log, parts)
		return tengo.UndefinedValue, nil
	}}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) != 0 {
			return nil, tengo.ErrWrongNumArguments
		}
		return &tengo.ImmutableMap{Value: map[string]tengo.Object{
			"x": &tengo.Float{Value: pos.X},
			"y": &tengo.Float{Value: pos.Y},
		}}, nil
	}}

	values["default_speed"] = &tengo.Float{Value: opts.DefaultSpeed}

	return &tengo.ImmutableMap{Value: values}
}

func tengoFloat(name string, obj tengo.Object) (float64, error) {
	v, ok := tengo.ToFloat64(obj)
	if !ok {
		return 0, tengo.ErrInvalidArgumentType{Name: name, Expected: "float", Found: obj.TypeName()}
	}
	return v, nil
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
