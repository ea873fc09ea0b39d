package script

import (
	"bytes"
	"fmt"

	"github.com/jakecoffman/cp"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"

	"github.com/milk9111/walkabout/behavior"
)

type luaScript struct {
	name  string
	proto *lua.FunctionProto
}

func compileLua(name string, src []byte) (*luaScript, error) {
	chunk, err := parse.Parse(bytes.NewReader(src), name)
	if err != nil {
		return nil, fmt.Errorf("script: parse %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("script: compile %s: %w", name, err)
	}
	return &luaScript{name: name, proto: proto}, nil
}

func (s *luaScript) Name() string { return s.name }

// Body runs the chunk in its own VM. Only base, table, string and math are
// opened.
func (s *luaScript) Body(opts Options) behavior.Body {
	return func(y *behavior.Yielder) {
		log := y.Logger().With(zap.String("script", s.name))
		L := lua.NewState(lua.Options{SkipOpenLibs: true})
		defer L.Close()

		if err := openLuaLibs(L); err != nil {
			log.Error("script engine setup failed", zap.Error(err))
			return
		}
		registerLuaEngine(L, y, log, opts)

		L.Push(L.NewFunctionFromProto(s.proto))
		if err := L.PCall(0, lua.MultRet, nil); err != nil {
			if y.Stopped() {
				return
			}
			log.Error("script runtime error", zap.Error(err))
		}
	}
}

func openLuaLibs(L *lua.LState) error {
	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return fmt.Errorf("open %s: %w", lib.name, err)
		}
	}
	return nil
}

func registerLuaEngine(L *lua.LState, y *behavior.Yielder, log *zap.Logger, opts Options) {
	pos := opts.Origin

	L.SetGlobal("walk", L.NewFunction(func(L *lua.LState) int {
		dx := float64(L.CheckNumber(1))
		dy := float64(L.CheckNumber(2))
		speed := float64(L.OptNumber(3, lua.LNumber(opts.DefaultSpeed)))
		if !y.Walk(dx, dy, speed) {
			L.RaiseError("%s", behavior.ErrStopped.Error())
		}
		pos = pos.Add(cp.Vector{X: dx, Y: dy})
		return 0
	}))

	L.SetGlobal("wait", L.NewFunction(func(L *lua.LState) int {
		if !y.Wait(float64(L.CheckNumber(1))) {
			L.RaiseError("%s", behavior.ErrStopped.Error())
		}
		return 0
	}))

	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logLine(log, parts)
		return 0
	}))

	// position() returns x, y
	L.SetGlobal("position", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(pos.X))
		L.Push(lua.LNumber(pos.Y))
		return 2
	}))

	L.SetGlobal("default_speed", lua.LNumber(opts.DefaultSpeed))
}
