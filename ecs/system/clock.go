package system

import "github.com/hajimehoshi/ebiten/v2"

// Clock supplies the elapsed seconds for the current tick.
type Clock interface {
	Delta() float64
}

// FixedClock returns the same delta every tick.
type FixedClock float64

func (c FixedClock) Delta() float64 { return float64(c) }

// ClockFunc adapts a function to Clock.
type ClockFunc func() float64

func (f ClockFunc) Delta() float64 { return f() }

// EbitenClock derives the delta from ebiten's fixed update rate, falling back
// to the measured rate when updates are synced with the display.
type EbitenClock struct{}

func (EbitenClock) Delta() float64 {
	if tps := ebiten.TPS(); tps > 0 {
		return 1 / float64(tps)
	}
	if tps := ebiten.ActualTPS(); tps > 0 {
		return 1 / tps
	}
	return 0
}
