package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/milk9111/walkabout/config"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
	"github.com/milk9111/walkabout/ecs/entity"
	"github.com/milk9111/walkabout/ecs/system"
	"github.com/milk9111/walkabout/prefabs"
)

var backgroundColor = color.RGBA{R: 0x1b, G: 0x1e, B: 0x24, A: 0xff}

// walkerSlot remembers which prefab an entity came from so it can be
// respawned when the prefab changes on disk.
type walkerSlot struct {
	prefab string
	spec   *prefabs.WalkerSpec
	entity ecs.Entity
}

type Game struct {
	cfg   *config.Config
	log   *zap.Logger
	debug bool

	world     *ecs.World
	scheduler *ecs.Scheduler
	behaviors *system.BehaviorSystem
	physics   *system.PhysicsSystem
	render    *system.RenderSystem
	watcher   *prefabs.Watcher

	walkers  []*walkerSlot
	frames   int
	finished int
}

func NewGame(cfg *config.Config, log *zap.Logger, debug bool) (*Game, error) {
	prefabs.DiskDir = cfg.Prefabs.Dir

	clock := system.EbitenClock{}
	g := &Game{
		cfg:       cfg,
		log:       log,
		debug:     debug,
		world:     ecs.NewWorld(),
		behaviors: system.NewBehaviorSystem(clock, system.WithLogger(log), system.WithWorkers(cfg.Sim.Workers)),
		physics:   system.NewPhysicsSystem(clock),
		render:    system.NewRenderSystem(),
	}
	g.render.ShowProgress = debug
	g.scheduler = ecs.NewScheduler(g.behaviors, g.physics)

	for _, name := range cfg.Prefabs.Walkers {
		if err := g.spawn(name); err != nil {
			g.Close()
			return nil, err
		}
	}

	if cfg.Prefabs.HotReload {
		g.watch()
	}
	return g, nil
}

func (g *Game) walkerOptions() entity.WalkerOptions {
	return entity.WalkerOptions{Log: g.log, Space: g.physics.Space(), Render: true}
}

func (g *Game) spawn(prefab string) error {
	spec, err := prefabs.LoadWalkerSpec(prefab)
	if err != nil {
		return err
	}
	e, err := entity.NewWalker(g.world, spec, g.walkerOptions())
	if err != nil {
		return err
	}
	g.walkers = append(g.walkers, &walkerSlot{prefab: prefab, spec: spec, entity: e})
	return nil
}

func (g *Game) watch() {
	dirs := []string{g.cfg.Prefabs.Dir}
	if info, err := os.Stat(filepath.Join(g.cfg.Prefabs.Dir, "scripts")); err == nil && info.IsDir() {
		dirs = append(dirs, filepath.Join(g.cfg.Prefabs.Dir, "scripts"))
	}
	w, err := prefabs.NewWatcher(dirs...)
	if err != nil {
		g.log.Warn("hot reload disabled", zap.Strings("dirs", dirs), zap.Error(err))
		return
	}
	g.watcher = w
	g.log.Info("watching prefabs", zap.Strings("dirs", dirs))
}

// reload drains pending prefab changes without blocking the frame.
func (g *Game) reload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.apply(change)
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.log.Warn("prefab watch error", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (g *Game) apply(change prefabs.Change) {
	if change.Script {
		prefabs.ForgetScript(change.Name())
	}
	for _, slot := range g.walkers {
		if !change.Affects(slot.prefab, slot.spec) {
			continue
		}
		spec, err := prefabs.LoadWalkerSpec(slot.prefab)
		if err != nil {
			g.log.Error("reload walker failed", zap.String("prefab", slot.prefab), zap.Error(err))
			continue
		}
		// build the replacement first so a broken edit keeps the old walker
		e, err := entity.NewWalker(g.world, spec, g.walkerOptions())
		if err != nil {
			g.log.Error("reload walker failed", zap.String("prefab", slot.prefab), zap.Error(err))
			continue
		}
		g.world.DestroyEntity(slot.entity)
		slot.spec = spec
		slot.entity = e
		g.log.Info("reloaded walker", zap.String("prefab", slot.prefab), zap.String("changed", change.Name()))
	}
}

func (g *Game) Update() error {
	g.frames++
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
		g.render.ShowProgress = g.debug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.restart()
	}

	g.reload()
	g.scheduler.Update(g.world)

	for _, evt := range g.world.Events().Drain() {
		if a, ok := evt.Data.(ecs.ActionEvent); ok && a.Phase == ecs.ProgramDone {
			g.finished++
		}
	}
	return nil
}

// restart respawns every walker from its prefab.
func (g *Game) restart() {
	slots := g.walkers
	g.walkers = nil
	g.finished = 0
	var errs []error
	for _, slot := range slots {
		g.world.DestroyEntity(slot.entity)
		if err := g.spawn(slot.prefab); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		g.log.Error("restart failed", zap.Error(err))
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	g.render.Draw(g.world, screen)

	status := fmt.Sprintf("TPS: %.1f    FPS: %.1f    walkers: %d    finished: %d", ebiten.ActualTPS(), ebiten.ActualFPS(), len(g.walkers), g.finished)
	if g.debug {
		for _, slot := range g.walkers {
			status += "\n" + g.describe(slot)
		}
	}
	ebitenutil.DebugPrint(screen, status)
}

func (g *Game) describe(slot *walkerSlot) string {
	b, ok := ecs.Get(g.world, slot.entity, component.BehaviorComponent)
	if !ok {
		return slot.spec.Name + ": gone"
	}
	line := fmt.Sprintf("%s [%s] %s", slot.spec.Name, b.Source, b.Driver.State())
	if a, ok := b.Driver.Current(); ok {
		line += fmt.Sprintf(" %v %.0f%%", a.Request(), a.Progress()*100)
	}
	return line
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
		g.watcher = nil
	}
	for _, slot := range g.walkers {
		g.world.DestroyEntity(slot.entity)
	}
	g.behaviors.Close()
}
