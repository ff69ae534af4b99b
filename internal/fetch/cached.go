package fetch

import (
	"container/list"
	"context"
	"image"
	"sync"

	"tileview/internal/grid"
)

type cacheEntry struct {
	spec grid.TileSpec
	img  *image.RGBA
}

// Cached wraps a Source with an in-memory LRU of decoded images. Every
// image it serves is marked shared: the cache keeps its own reference, so
// the render set must not hand the buffer back to the raster pool.
type Cached struct {
	inner   Source
	maxSize int

	mu      sync.Mutex
	items   map[grid.TileSpec]*list.Element
	lruList *list.List
}

// NewCached wraps inner with an LRU holding up to maxSize decoded tiles.
func NewCached(inner Source, maxSize int) *Cached {
	return &Cached{
		inner:   inner,
		maxSize: maxSize,
		items:   make(map[grid.TileSpec]*list.Element),
		lruList: list.New(),
	}
}

func (c *Cached) Load(ctx context.Context, spec grid.TileSpec) (*image.RGBA, bool, error) {
	c.mu.Lock()
	if elem, ok := c.items[spec]; ok {
		c.lruList.MoveToFront(elem)
		img := elem.Value.(*cacheEntry).img
		c.mu.Unlock()
		return img, true, nil
	}
	c.mu.Unlock()

	img, _, err := c.inner.Load(ctx, spec)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	if _, ok := c.items[spec]; !ok {
		if c.lruList.Len() >= c.maxSize {
			oldest := c.lruList.Back()
			if oldest != nil {
				delete(c.items, oldest.Value.(*cacheEntry).spec)
				c.lruList.Remove(oldest)
			}
		}
		c.items[spec] = c.lruList.PushFront(&cacheEntry{spec: spec, img: img})
	}
	c.mu.Unlock()

	return img, true, nil
}

// Len returns the number of cached tiles.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops every cached tile.
func (c *Cached) Clear() {
	c.mu.Lock()
	c.items = make(map[grid.TileSpec]*list.Element)
	c.lruList = list.New()
	c.mu.Unlock()
}
