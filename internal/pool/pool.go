package pool

import "sync"

// Pool is a thread-safe bag of released resources available for reuse.
//
// Get never blocks and never allocates: when the pool is empty it reports
// false and the caller allocates fresh. The pool itself enforces no upper
// bound; its size is bounded by how many resources have ever been released
// into it.
type Pool[R any] struct {
	mu   sync.Mutex
	free []R
}

// New creates an empty pool.
func New[R any]() *Pool[R] {
	return &Pool[R]{}
}

// Get removes and returns a previously released resource.
// Returns (zero, false) when the pool is empty.
func (p *Pool[R]) Get() (R, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		var zero R
		return zero, false
	}

	r := p.free[n-1]
	var zero R
	p.free[n-1] = zero // don't pin the resource in the backing array
	p.free = p.free[:n-1]
	return r, true
}

// Put returns a resource to the pool for reuse.
// The caller must not use the resource after releasing it.
func (p *Pool[R]) Put(r R) {
	p.mu.Lock()
	p.free = append(p.free, r)
	p.mu.Unlock()
}

// Len returns the number of resources currently available.
func (p *Pool[R]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Clear drops every pooled resource. Used at teardown.
func (p *Pool[R]) Clear() {
	p.mu.Lock()
	p.free = nil
	p.mu.Unlock()
}
