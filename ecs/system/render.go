package system

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"

	"github.com/milk9111/walkabout/behavior"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
)

const progressBarHeight = 3

type RenderSystem struct {
	// ShowProgress draws a bar under each walker with the in-flight action's
	// progress.
	ShowProgress bool
}

func NewRenderSystem() *RenderSystem {
	return &RenderSystem{}
}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image) {
	if r == nil || w == nil || screen == nil {
		return
	}

	for _, e := range w.Query(component.TransformComponent.Kind(), component.SpriteComponent.Kind()) {
		t, ok := ecs.Get(w, e, component.TransformComponent)
		if !ok {
			continue
		}
		s, ok := ecs.Get(w, e, component.SpriteComponent)
		if !ok || s.Image == nil {
			continue
		}

		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-s.OriginX, -s.OriginY)
		op.GeoM.Rotate(t.Rotation)
		op.GeoM.Translate(t.X, t.Y)
		screen.DrawImage(s.Image, op)

		if r.ShowProgress {
			r.drawProgress(w, e, t, s, screen)
		}
	}
}

func (r *RenderSystem) drawProgress(w *ecs.World, e ecs.Entity, t *component.Transform, s *component.Sprite, screen *ebiten.Image) {
	b, ok := ecs.Get(w, e, component.BehaviorComponent)
	if !ok || b.Driver == nil {
		return
	}
	action, ok := b.Driver.Current()
	if !ok {
		return
	}

	x := float32(t.X - s.OriginX)
	y := float32(t.Y - s.OriginY + s.Height + 2)
	width := float32(s.Width)
	var fill color.Color = colornames.Limegreen
	if _, waiting := action.Request().(behavior.Wait); waiting {
		fill = colornames.Gold
	}
	vector.FillRect(screen, x, y, width, progressBarHeight, colornames.Dimgray, false)
	vector.FillRect(screen, x, y, width*float32(action.Progress()), progressBarHeight, fill, false)
}
