// Command simulate runs walkers headless with a fixed tick until every
// behavior program has finished.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/milk9111/walkabout/config"
	"github.com/milk9111/walkabout/ecs"
	"github.com/milk9111/walkabout/ecs/component"
	"github.com/milk9111/walkabout/ecs/entity"
	"github.com/milk9111/walkabout/ecs/system"
	"github.com/milk9111/walkabout/prefabs"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	maxTicks := flag.Int("ticks", 0, "override sim.max_ticks")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *maxTicks > 0 {
		cfg.Sim.MaxTicks = *maxTicks
	}
	if flag.NArg() > 0 {
		cfg.Prefabs.Walkers = flag.Args()
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	prefabs.DiskDir = cfg.Prefabs.Dir

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := system.NewBehaviorMetrics(reg)

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	clock := system.FixedClock(cfg.Sim.FixedDelta)
	behaviors := system.NewBehaviorSystem(clock,
		system.WithLogger(log),
		system.WithMetrics(metrics),
		system.WithWorkers(cfg.Sim.Workers),
	)
	defer behaviors.Close()
	physics := system.NewPhysicsSystem(clock)

	w := ecs.NewWorld()
	ents, err := entity.SpawnWalkers(w, cfg.Prefabs.Walkers, entity.WalkerOptions{Log: log, Space: physics.Space()})
	defer func() {
		for _, e := range ents {
			w.DestroyEntity(e)
		}
	}()
	if err != nil {
		return err
	}

	scheduler := ecs.NewScheduler(behaviors, physics)
	ticks, err := simulate(ctx, w, scheduler, cfg.Sim.MaxTicks)
	report(w, ents, ticks, float64(ticks)*cfg.Sim.FixedDelta, log)
	return err
}

var errTickLimit = errors.New("tick limit reached before every program finished")

// simulate steps the world until every behavior has reported completion.
func simulate(ctx context.Context, w *ecs.World, scheduler *ecs.Scheduler, maxTicks int) (int, error) {
	for tick := 0; ; tick++ {
		if allFinished(w) {
			return tick, nil
		}
		if tick >= maxTicks {
			return tick, fmt.Errorf("%w (%d ticks)", errTickLimit, maxTicks)
		}
		if err := ctx.Err(); err != nil {
			return tick, err
		}
		scheduler.Update(w)
		w.Events().Drain()
	}
}

func allFinished(w *ecs.World) bool {
	finished := true
	ecs.ForEach(w, component.BehaviorComponent, func(_ ecs.Entity, b *component.Behavior) {
		if !b.Reported {
			finished = false
		}
	})
	return finished
}

func report(w *ecs.World, ents []ecs.Entity, ticks int, elapsed float64, log *zap.Logger) {
	for _, e := range ents {
		b, ok := ecs.Get(w, e, component.BehaviorComponent)
		if !ok {
			continue
		}
		t, _ := ecs.Get(w, e, component.TransformComponent)
		fields := []zap.Field{
			zap.String("walker", b.Name),
			zap.Stringer("state", b.Driver.State()),
		}
		if t != nil {
			fields = append(fields, zap.Float64("x", t.X), zap.Float64("y", t.Y))
		}
		log.Info("final position", fields...)
	}
	log.Info("simulation ended", zap.Int("ticks", ticks), zap.Float64("seconds", elapsed))
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
