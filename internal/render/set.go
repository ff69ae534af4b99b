package render

import (
	"image"
	"sort"

	"tileview/internal/grid"
	"tileview/internal/pool"
)

// Set is the render set: an ordered collection of tiles with no duplicate
// positions. It is not internally synchronized; the view model confines
// every mutation behind its own mutex.
type Set struct {
	tiles   []*Tile
	index   map[grid.TileSpec]*Tile
	rasters *pool.Pool[*image.RGBA]
	styles  *pool.Pool[*Style]
}

// NewSet creates an empty render set recycling through the given pools.
func NewSet(rasters *pool.Pool[*image.RGBA], styles *pool.Pool[*Style]) *Set {
	return &Set{
		index:   make(map[grid.TileSpec]*Tile),
		rasters: rasters,
		styles:  styles,
	}
}

// Len returns the number of tiles in the set.
func (s *Set) Len() int { return len(s.tiles) }

// Has reports whether a tile at the exact position is already present.
func (s *Set) Has(spec grid.TileSpec) bool {
	_, ok := s.index[spec]
	return ok
}

// CountAt returns the number of tiles at the given level and subsample.
func (s *Set) CountAt(level, subSample int) int {
	n := 0
	for _, t := range s.tiles {
		if t.Spec.Level == level && t.Spec.SubSample == subSample {
			n++
		}
	}
	return n
}

// Insert adds a tile. Returns false, leaving the set unchanged, if a tile
// at the same position is already present; the caller recycles the
// rejected duplicate.
func (s *Set) Insert(t *Tile) bool {
	if _, ok := s.index[t.Spec]; ok {
		return false
	}
	s.tiles = append(s.tiles, t)
	s.index[t.Spec] = t
	return true
}

// Recycle returns a tile's resources to the pools and clears its
// references. Every tile leaving the set goes through here exactly once.
func (s *Set) Recycle(t *Tile) {
	if t.Image != nil && !t.Shared {
		s.rasters.Put(t.Image)
	}
	t.Image = nil
	if t.Style != nil {
		t.Style.Reset()
		s.styles.Put(t.Style)
		t.Style = nil
	}
}

// AcquireStyle hands out a pooled style or a fresh neutral one.
func (s *Set) AcquireStyle() *Style {
	if st, ok := s.styles.Get(); ok {
		return st
	}
	return NewStyle()
}

// removeIf drops every tile matching pred, recycling its resources.
// Returns the number of tiles removed.
func (s *Set) removeIf(pred func(*Tile) bool) int {
	kept := s.tiles[:0]
	removed := 0
	for _, t := range s.tiles {
		if pred(t) {
			delete(s.index, t.Spec)
			s.Recycle(t)
			removed++
			continue
		}
		kept = append(kept, t)
	}
	for i := len(kept); i < len(s.tiles); i++ {
		s.tiles[i] = nil
	}
	s.tiles = kept
	return removed
}

// Purge removes and recycles every tile. Used at teardown.
func (s *Set) Purge() int {
	return s.removeIf(func(*Tile) bool { return true })
}

// Snapshot returns a copy of the set for the presentation layer, with
// tiles at the current level and subsample ordered first so a sharp tile
// arriving atop a lower-resolution stand-in pops less.
func (s *Set) Snapshot(level, subSample int) []Tile {
	out := make([]Tile, len(s.tiles))
	for i, t := range s.tiles {
		out[i] = *t
	}
	current := func(t Tile) bool {
		return t.Spec.Level == level && t.Spec.SubSample == subSample
	}
	sort.SliceStable(out, func(i, j int) bool {
		return current(out[i]) && !current(out[j])
	})
	return out
}
