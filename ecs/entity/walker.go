package entity

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"

	"github.com/milk9111/walkabout/behavior"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
	"github.com/milk9111/walkabout/prefabs"
)

const defaultWalkerSize = 16

type WalkerOptions struct {
	Log *zap.Logger
	// Space receives the bodies of kinematic walkers.
	Space *cp.Space
	// Render gives walkers a sprite image. Headless runs leave it off.
	Render bool
}

// NewWalker builds an entity from spec: a transform, a behavior driver, and
// optionally a sprite and a kinematic body. A partially built entity is
// destroyed on error.
func NewWalker(w *ecs.World, spec *prefabs.WalkerSpec, opts WalkerOptions) (e ecs.Entity, err error) {
	if spec == nil {
		return 0, errors.New("walker: nil spec")
	}
	if spec.Kinematic && opts.Space == nil {
		return 0, fmt.Errorf("walker %s: kinematic body needs a space", spec.Name)
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	body, source, err := prefabs.BuildBody(spec)
	if err != nil {
		return 0, fmt.Errorf("walker %s: %w", spec.Name, err)
	}

	e = w.CreateEntity()
	defer func() {
		if err != nil {
			w.DestroyEntity(e)
		}
	}()

	if err := ecs.Add(w, e, component.TransformComponent, component.Transform{
		X:        spec.Transform.X,
		Y:        spec.Transform.Y,
		Rotation: spec.Transform.Rotation,
	}); err != nil {
		return 0, fmt.Errorf("walker %s: add transform: %w", spec.Name, err)
	}

	driverLog := log.Named("behavior").With(zap.String("walker", spec.Name), zap.Stringer("entity", e))
	if err := ecs.Add(w, e, component.BehaviorComponent, component.Behavior{
		Name:   spec.Name,
		Source: source,
		Driver: behavior.NewDriver(body, driverLog),
	}); err != nil {
		return 0, fmt.Errorf("walker %s: add behavior: %w", spec.Name, err)
	}

	if spec.Kinematic {
		kb := cp.NewKinematicBody()
		kb.SetPosition(cp.Vector{X: spec.Transform.X, Y: spec.Transform.Y})
		kb.SetAngle(spec.Transform.Rotation)
		opts.Space.AddBody(kb)
		if err := ecs.Add(w, e, component.KinematicBodyComponent, component.KinematicBody{Body: kb, Space: opts.Space}); err != nil {
			opts.Space.RemoveBody(kb)
			return 0, fmt.Errorf("walker %s: add kinematic body: %w", spec.Name, err)
		}
	}

	if opts.Render {
		sprite, err := walkerSprite(spec.Sprite)
		if err != nil {
			return 0, fmt.Errorf("walker %s: %w", spec.Name, err)
		}
		if err := ecs.Add(w, e, component.SpriteComponent, sprite); err != nil {
			return 0, fmt.Errorf("walker %s: add sprite: %w", spec.Name, err)
		}
	}

	log.Info("spawned walker",
		zap.String("walker", spec.Name),
		zap.Stringer("entity", e),
		zap.String("source", source),
		zap.Bool("kinematic", spec.Kinematic),
	)
	return e, nil
}

// SpawnWalkers loads each named prefab and builds it. It stops at the first
// failure, leaving the walkers built so far in the world.
func SpawnWalkers(w *ecs.World, names []string, opts WalkerOptions) ([]ecs.Entity, error) {
	out := make([]ecs.Entity, 0, len(names))
	for _, name := range names {
		spec, err := prefabs.LoadWalkerSpec(name)
		if err != nil {
			return out, err
		}
		e, err := NewWalker(w, spec, opts)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

func walkerSprite(spec prefabs.SpriteSpec) (component.Sprite, error) {
	clr, err := ParseColor(spec.Color)
	if err != nil {
		return component.Sprite{}, err
	}
	width, height := spec.Width, spec.Height
	if width <= 0 {
		width = defaultWalkerSize
	}
	if height <= 0 {
		height = defaultWalkerSize
	}

	img := ebiten.NewImage(int(width), int(height))
	img.Fill(clr)
	return component.Sprite{
		Image:   img,
		Width:   width,
		Height:  height,
		Color:   clr,
		OriginX: width / 2,
		OriginY: height / 2,
	}, nil
}

// ParseColor accepts an SVG color name or a #rrggbb / #rrggbbaa hex value.
// An empty string is white.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return colornames.White, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.RGBA{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
