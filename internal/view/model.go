// Package view exposes the tile core to the presentation layer: a
// viewport setter on one side and a throttled, ordered render list on the
// other. The render set, idle flag and last visible set are confined
// behind one mutex; the viewport-change path and the tile-consumption
// path both go through it.
package view

import (
	"context"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"

	"tileview/internal/grid"
	"tileview/internal/pipeline"
	"tileview/internal/pool"
	"tileview/internal/render"
	"tileview/internal/sched"
)

const (
	// DefaultThrottleWindow bounds render-list emission to roughly one
	// update per frame at ~30 Hz.
	DefaultThrottleWindow = 34 * time.Millisecond

	// DefaultIdleDelay is how long tile arrivals must stay quiet before
	// the system is considered idle and aggressive eviction may run.
	DefaultIdleDelay = 250 * time.Millisecond
)

// StyleProvider customizes a freshly assigned style for a tile position,
// e.g. per-tile color adjustment. Called only at first insertion.
type StyleProvider func(level, row, col int, s *render.Style)

// Config tunes a Model. Zero values fall back to defaults.
type Config struct {
	ThrottleWindow time.Duration
	IdleDelay      time.Duration
	StyleProvider  StyleProvider
}

// Model is the view-model facade. It owns the render set, the pipeline,
// the resource pools and the scheduler lifecycle.
type Model struct {
	logger   *zap.Logger
	pipe     *pipeline.Pipeline
	rasters  *pool.Pool[*image.RGBA]
	styles   *pool.Pool[*render.Style]
	throttle *sched.Throttle
	debounce *sched.Debounce
	styleFor StyleProvider
	updates  chan []render.Tile

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	set      *render.Set
	viewport grid.Viewport
	visible  grid.VisibleSet
	expected int
	idle     bool
	last     []render.Tile
}

// New creates a model and starts its result-consumption task. The caller
// attaches a worker pool to Pipeline() and must Close the model when done.
func New(cfg Config, logger *zap.Logger) *Model {
	if cfg.ThrottleWindow <= 0 {
		cfg.ThrottleWindow = DefaultThrottleWindow
	}
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = DefaultIdleDelay
	}

	rasters := pool.New[*image.RGBA]()
	styles := pool.New[*render.Style]()

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		logger:   logger,
		pipe:     pipeline.New(logger),
		rasters:  rasters,
		styles:   styles,
		styleFor: cfg.StyleProvider,
		updates:  make(chan []render.Tile, 1),
		ctx:      ctx,
		cancel:   cancel,
		set:      render.NewSet(rasters, styles),
	}
	m.throttle = sched.NewThrottle(cfg.ThrottleWindow, m.emit)
	m.debounce = sched.NewDebounce(cfg.IdleDelay, m.markIdle)

	m.wg.Add(1)
	go m.consume()
	return m
}

// Pipeline exposes the request/result channels for the fetch worker pool.
func (m *Model) Pipeline() *pipeline.Pipeline { return m.pipe }

// Rasters is the shared raster-buffer pool. The decode path draws into
// pooled buffers so evicted tile memory gets reused.
func (m *Model) Rasters() *pool.Pool[*image.RGBA] { return m.rasters }

// SetViewport handles a viewport change: resets idle, restarts the
// submission task for the new visible set, evicts and schedules a render
// update.
func (m *Model) SetViewport(vp grid.Viewport) {
	vs := grid.ComputeVisible(vp, vp.Level, vp.SubSample)

	m.mu.Lock()
	m.idle = false
	m.viewport = vp
	m.visible = vs
	m.expected = vs.Count
	m.mu.Unlock()

	m.pipe.Submit(m.ctx, vs, m.hasTile)

	m.mu.Lock()
	m.evictLocked()
	m.mu.Unlock()

	m.throttle.Schedule()
}

// RenderList returns the latest throttled snapshot sorted with the
// current level and subsample first. Read-only for the caller.
func (m *Model) RenderList() []render.Tile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Updates pushes a fresh snapshot whenever the throttle fires. Capacity
// one, latest wins: a slow reader only ever sees the newest list.
func (m *Model) Updates() <-chan []render.Tile { return m.updates }

// Idle reports whether the idle debounce has fired since the last
// viewport change or tile arrival.
func (m *Model) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle
}

// Close cancels the submission and consumption tasks, stops the
// schedulers and releases every tile and pooled resource.
func (m *Model) Close() {
	m.cancel()
	m.pipe.Close()
	m.wg.Wait()
	m.throttle.Stop()
	m.debounce.Stop()

	m.mu.Lock()
	purged := m.set.Purge()
	m.mu.Unlock()
	m.rasters.Clear()
	m.styles.Clear()

	m.logger.Debug("view model closed", zap.Int("tiles_released", purged))
}

func (m *Model) hasTile(spec grid.TileSpec) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Has(spec)
}

// consume is the persistent result-consumption task.
func (m *Model) consume() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case t := <-m.pipe.Results():
			m.accept(t)
		}
	}
}

// accept applies the delivery rule for one tile: insert if it is still
// visible and not yet rendered, otherwise recycle it immediately. Either
// way the idle debounce and the render throttle are signalled.
func (m *Model) accept(t *render.Tile) {
	m.mu.Lock()
	switch {
	case !m.visible.Covers(t.Spec):
		m.set.Recycle(t)
		m.logger.Debug("tile no longer visible, recycled", zap.Stringer("tile", t.Spec))
	case m.set.Has(t.Spec):
		m.set.Recycle(t)
		m.logger.Debug("duplicate tile, recycled", zap.Stringer("tile", t.Spec))
	default:
		st := m.set.AcquireStyle()
		if m.styleFor != nil {
			m.styleFor(t.Spec.Level, t.Spec.Row, t.Spec.Col, st)
		}
		t.Style = st
		m.set.Insert(t)
	}
	m.mu.Unlock()

	m.debounce.Schedule()
	m.throttle.Schedule()
}

// markIdle is the debounce action: no tile arrived for the idle delay, so
// the current level is as complete as it will get for now.
func (m *Model) markIdle() {
	m.mu.Lock()
	m.idle = true
	m.evictLocked()
	m.mu.Unlock()
	m.throttle.Schedule()
}

// evictLocked runs the unconditional pass plus the policy selected by the
// idle flag. Caller holds m.mu.
func (m *Model) evictLocked() {
	if m.visible.Count == 0 {
		return
	}
	removed := m.set.EvictStale(m.visible)
	if m.idle {
		removed += m.set.EvictAggressive(m.visible, m.expected)
	} else {
		removed += m.set.EvictPartial(m.visible, m.visibleAt)
	}
	if removed > 0 {
		m.logger.Debug("evicted tiles",
			zap.Int("removed", removed),
			zap.Bool("idle", m.idle),
			zap.Int("remaining", m.set.Len()))
	}
}

func (m *Model) visibleAt(level, subSample int) grid.VisibleSet {
	return grid.ComputeVisible(m.viewport, level, subSample)
}

// emit is the throttle action: snapshot, remember, push latest-wins.
func (m *Model) emit() {
	m.mu.Lock()
	snap := m.set.Snapshot(m.visible.Level, m.visible.SubSample)
	m.last = snap
	m.mu.Unlock()

	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- snap:
	default:
	}
}
