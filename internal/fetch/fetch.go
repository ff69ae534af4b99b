// Package fetch is the reference fetch/decode worker pool behind the
// request channel: N workers pull tile specs, decode through a pluggable
// Source and deliver finished tiles on the result channel. A request that
// fails is logged and skipped; its slot simply stays empty.
package fetch

import (
	"context"
	"image"
	"sync"

	"go.uber.org/zap"

	"tileview/internal/grid"
	"tileview/internal/pipeline"
	"tileview/internal/render"
)

// TileSize is the edge length in pixels of every delivered tile.
const TileSize = 256

// Source produces the decoded image for one tile spec. The returned
// shared flag marks images still referenced by the source (e.g. a decode
// cache); the render set will not pool those.
type Source interface {
	Load(ctx context.Context, spec grid.TileSpec) (img *image.RGBA, shared bool, err error)
}

// Workers is a fixed-size decode worker pool.
type Workers struct {
	count  int
	source Source
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewWorkers creates a pool of count workers decoding through source.
func NewWorkers(count int, source Source, logger *zap.Logger) *Workers {
	if count <= 0 {
		count = 1
	}
	return &Workers{count: count, source: source, logger: logger}
}

// Run starts the workers against the pipeline. They exit when ctx is
// cancelled; Wait blocks until all have.
func (w *Workers) Run(ctx context.Context, pipe *pipeline.Pipeline) {
	w.wg.Add(w.count)
	for i := range w.count {
		go w.worker(ctx, i, pipe)
	}
}

// Wait blocks until every worker has exited.
func (w *Workers) Wait() {
	w.wg.Wait()
}

func (w *Workers) worker(ctx context.Context, id int, pipe *pipeline.Pipeline) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case spec := <-pipe.Requests():
			img, shared, err := w.source.Load(ctx, spec)
			if err != nil {
				w.logger.Debug("tile load failed",
					zap.Int("worker", id),
					zap.Stringer("tile", spec),
					zap.Error(err))
				continue
			}
			tile := &render.Tile{Spec: spec, Image: img, Shared: shared}
			if !pipe.Deliver(ctx, tile) {
				return
			}
		}
	}
}
