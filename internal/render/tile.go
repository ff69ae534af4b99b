// Package render holds the authoritative in-memory set of tiles eligible
// for display, together with the eviction policies that keep it bounded.
package render

import (
	"image"
	"image/color"

	"tileview/internal/grid"
)

// Style carries the per-tile paint state the presentation layer applies
// (fade-in opacity, optional tint). Styles are pooled; Reset brings one
// back to neutral before reuse.
type Style struct {
	// Alpha in [0,1]; 1 is fully opaque.
	Alpha float32
	// Tint is an optional color filter; the zero value means none.
	Tint color.NRGBA
}

// NewStyle returns a style in the neutral state.
func NewStyle() *Style {
	return &Style{Alpha: 1}
}

// Reset restores the neutral state so a future acquirer starts clean.
func (s *Style) Reset() {
	s.Alpha = 1
	s.Tint = color.NRGBA{}
}

// Tile is one decoded image unit. Image is exclusively owned by the tile
// until eviction, at which point ownership transfers back to the raster
// pool. Style is assigned lazily on first acceptance into the set, so a
// tile discarded as a duplicate never borrows one.
//
// Shared marks an image owned by a decode cache; such images are still
// referenced elsewhere and are never returned to the pool.
type Tile struct {
	Spec   grid.TileSpec
	Image  *image.RGBA
	Style  *Style
	Shared bool
}
