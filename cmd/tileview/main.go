package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cshum/vipsgen/vips"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"tileview/internal/config"
	"tileview/internal/fetch"
	"tileview/internal/grid"
	"tileview/internal/logger"
	"tileview/internal/view"
)

func main() {
	cfgPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, "console")
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if cfg.Source.Kind == "vips" {
		vipsConfig := &vips.Config{
			ConcurrencyLevel: cfg.Vips.Concurrency,
			MaxCacheMem:      cfg.Vips.MaxCacheMB * 1024 * 1024,
			MaxCacheFiles:    0,
			MaxCacheSize:     0,
			ReportLeaks:      false,
			CacheTrace:       false,
			VectorEnabled:    true,
		}
		vips.SetLogging(func(domain string, level vips.LogLevel, message string) {
			if level >= vips.LogLevelError {
				log.Error("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
			} else if level >= vips.LogLevelWarning {
				log.Warn("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
			}
		}, vips.LogLevelError)
		vips.Startup(vipsConfig)
		defer vips.Shutdown()

		log.Info("VIPS initialized",
			zap.Int("max_cache_mb", cfg.Vips.MaxCacheMB),
			zap.Int("concurrency", cfg.Vips.Concurrency),
		)
	}

	model := view.New(view.Config{
		ThrottleWindow: time.Duration(cfg.View.ThrottleMs) * time.Millisecond,
		IdleDelay:      time.Duration(cfg.View.IdleMs) * time.Millisecond,
	}, log)
	defer model.Close()

	source, err := fetch.NewSource(cfg.Source.Kind, cfg.Source.Dir, cfg.Source.Image,
		cfg.Source.CacheTiles, model.Rasters(), log)
	if err != nil {
		log.Fatal("Failed to initialize tile source", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := fetch.NewWorkers(cfg.Fetch.Workers, source, log)
	workers.Run(ctx, model.Pipeline())

	log.Info("Tile core started",
		zap.String("source", cfg.Source.Kind),
		zap.Int("workers", cfg.Fetch.Workers),
	)

	go logUpdates(ctx, model, log)
	go tour(ctx, model, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	cancel()
	workers.Wait()
	log.Info("Stopped")
}

// logUpdates drains the throttled render-list channel so the demo shows
// what a presentation layer would receive.
func logUpdates(ctx context.Context, model *view.Model, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case list := <-model.Updates():
			log.Info("render update",
				zap.Int("tiles", len(list)),
				zap.Bool("idle", model.Idle()),
			)
		}
	}
}

// tour drives the model through a scripted pan-and-zoom so all three
// eviction paths get exercised: pan (unconditional + partial), settle
// (idle + aggressive), zoom (placeholder keep).
func tour(ctx context.Context, model *view.Model, log *zap.Logger) {
	window := func(lon, lat, span float64) orb.Bound {
		return orb.Bound{
			Min: orb.Point{lon - span, lat - span},
			Max: orb.Point{lon + span, lat + span},
		}
	}

	waypoints := []grid.Viewport{
		{Bound: window(0, 0, 4), Level: 4},
		{Bound: window(6, 2, 4), Level: 4},
		{Bound: window(12, 4, 4), Level: 4},
		{Bound: window(12, 4, 2), Level: 5},
		{Bound: window(12, 4, 1), Level: 6},
		{Bound: window(12, 4, 2), Level: 5},
		{Bound: window(0, 0, 90), Level: 0, SubSample: 1},
	}

	for i := 0; ; i++ {
		vp := waypoints[i%len(waypoints)]
		log.Info("viewport change",
			zap.Int("level", vp.Level),
			zap.Int("subsample", vp.SubSample),
		)
		model.SetViewport(vp)

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}
