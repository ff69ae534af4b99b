// Package pipeline connects the view model to the fetch/decode worker
// pool through rendezvous channels. The request channel is unbuffered on
// purpose: a send completes only when a worker is ready, so a slow pool
// throttles request generation instead of letting a queue grow.
package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tileview/internal/grid"
	"tileview/internal/render"
)

// Pipeline owns the request and result channels and the single active
// submission task. At most one submission task runs at a time; starting a
// new one cancels the previous at its next send.
type Pipeline struct {
	requests chan grid.TileSpec
	results  chan *render.Tile
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a pipeline with rendezvous request and result channels.
func New(logger *zap.Logger) *Pipeline {
	return &Pipeline{
		requests: make(chan grid.TileSpec),
		results:  make(chan *render.Tile),
		logger:   logger,
	}
}

// Requests is the channel the worker pool consumes tile requests from.
func (p *Pipeline) Requests() <-chan grid.TileSpec { return p.requests }

// Results is the channel the view model drains decoded tiles from.
func (p *Pipeline) Results() <-chan *render.Tile { return p.results }

// Deliver hands a decoded tile to the consumption side. Blocks until the
// consumer takes it or ctx is cancelled; reports whether it was taken.
func (p *Pipeline) Deliver(ctx context.Context, t *render.Tile) bool {
	select {
	case p.results <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// Submit cancels any running submission task and starts a new one for vs.
// The task sends a request for every visible coordinate for which covered
// reports false, checking cancellation at each send so a burst of viewport
// changes never piles up stale submitters. Partially submitted batches are
// simply abandoned; downstream dedup would have discarded them anyway.
func (p *Pipeline) Submit(ctx context.Context, vs grid.VisibleSet, covered func(grid.TileSpec) bool) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	subCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	gen := uuid.New().String()[:8]
	p.logger.Debug("submission started",
		zap.String("generation", gen),
		zap.Int("level", vs.Level),
		zap.Int("subsample", vs.SubSample),
		zap.Int("visible", vs.Count))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		sent := 0
		for _, spec := range vs.Specs() {
			if covered(spec) {
				continue
			}
			select {
			case p.requests <- spec:
				sent++
			case <-subCtx.Done():
				p.logger.Debug("submission cancelled",
					zap.String("generation", gen),
					zap.Int("sent", sent))
				return
			}
		}
		p.logger.Debug("submission finished",
			zap.String("generation", gen),
			zap.Int("sent", sent))
	}()
}

// CancelSubmission stops the active submission task, if any.
func (p *Pipeline) CancelSubmission() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
}

// Close cancels the active submission task and waits for it to exit.
// Channels are left open; lifetime of the consumer and workers is bound
// to their contexts, not to channel closure.
func (p *Pipeline) Close() {
	p.CancelSubmission()
	p.wg.Wait()
}
