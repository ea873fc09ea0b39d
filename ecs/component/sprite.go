package component

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

type Sprite struct {
	Image   *ebiten.Image
	Width   float64
	Height  float64
	Color   color.Color
	OriginX float64
	OriginY float64
}

var SpriteComponent = NewComponent[Sprite]()
