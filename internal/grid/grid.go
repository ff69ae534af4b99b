// Package grid models tile coordinates and the visible-set computation:
// given a geographic viewport and a zoom level, which tiles intersect it.
package grid

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileSpec identifies one tile of the pyramid. SubSample > 0 marks a
// lower-resolution stand-in at the given level covering (1<<SubSample)
// times the nominal tile span; it is used below the lowest native zoom.
//
// TileSpec has value equality and doubles as the render-set position key.
type TileSpec struct {
	Level     int
	Row       int
	Col       int
	SubSample int
}

func (s TileSpec) String() string {
	return fmt.Sprintf("%d/%d/%d~%d", s.Level, s.Col, s.Row, s.SubSample)
}

// Viewport is the geographic window the surface currently shows, plus the
// level and subsample factor the gesture layer selected for it.
type Viewport struct {
	Bound     orb.Bound
	Level     int
	SubSample int
}

// ColRange is an inclusive column interval within one row.
type ColRange struct {
	Min, Max int
}

// VisibleSet is the set of tile coordinates intersecting a viewport at one
// level and subsample factor. Immutable once computed.
type VisibleSet struct {
	Level     int
	SubSample int
	Count     int

	// Rows maps row index to its visible column range.
	Rows map[int]ColRange

	// Bounding box over all rows, for the coarse overlap test used by
	// conservative eviction.
	MinRow, MaxRow int
	MinCol, MaxCol int
}

// ComputeVisible computes the visible set of vp's bound at the given level
// and subsample factor. It is pure: the same inputs always yield the same
// set, and it may be called for levels other than vp.Level during eviction
// re-checks.
func ComputeVisible(vp Viewport, level, subSample int) VisibleSet {
	if level < 0 {
		level = 0
	}
	z := maptile.Zoom(level)

	topLeft := maptile.At(orb.Point{vp.Bound.Left(), vp.Bound.Top()}, z)
	bottomRight := maptile.At(orb.Point{vp.Bound.Right(), vp.Bound.Bottom()}, z)

	maxIndex := (1 << level) - 1
	minCol := clamp(int(topLeft.X), 0, maxIndex)
	maxCol := clamp(int(bottomRight.X), 0, maxIndex)
	minRow := clamp(int(topLeft.Y), 0, maxIndex)
	maxRow := clamp(int(bottomRight.Y), 0, maxIndex)

	// A subsampled tile spans (1<<subSample) nominal tiles, so the grid
	// indices collapse by that factor.
	if subSample > 0 {
		minCol >>= subSample
		maxCol >>= subSample
		minRow >>= subSample
		maxRow >>= subSample
	}

	vs := VisibleSet{
		Level:     level,
		SubSample: subSample,
		Rows:      make(map[int]ColRange, maxRow-minRow+1),
		MinRow:    minRow,
		MaxRow:    maxRow,
		MinCol:    minCol,
		MaxCol:    maxCol,
	}
	for row := minRow; row <= maxRow; row++ {
		vs.Rows[row] = ColRange{Min: minCol, Max: maxCol}
		vs.Count += maxCol - minCol + 1
	}
	return vs
}

// Contains reports whether the exact tile position is visible.
func (vs VisibleSet) Contains(row, col int) bool {
	r, ok := vs.Rows[row]
	return ok && col >= r.Min && col <= r.Max
}

// Overlaps reports whether the position falls inside the set's bounding
// box. Coarser than Contains; used for conservative eviction checks.
func (vs VisibleSet) Overlaps(row, col int) bool {
	if vs.Count == 0 {
		return false
	}
	return row >= vs.MinRow && row <= vs.MaxRow && col >= vs.MinCol && col <= vs.MaxCol
}

// Covers reports whether the spec matches the set's level and subsample
// and its position is visible.
func (vs VisibleSet) Covers(s TileSpec) bool {
	return s.Level == vs.Level && s.SubSample == vs.SubSample && vs.Contains(s.Row, s.Col)
}

// Specs returns the visible coordinates as request descriptors, in
// row-major iteration order. Requests within one viewport generation are
// emitted in this order.
func (vs VisibleSet) Specs() []TileSpec {
	specs := make([]TileSpec, 0, vs.Count)
	for row := vs.MinRow; row <= vs.MaxRow; row++ {
		r, ok := vs.Rows[row]
		if !ok {
			continue
		}
		for col := r.Min; col <= r.Max; col++ {
			specs = append(specs, TileSpec{
				Level:     vs.Level,
				Row:       row,
				Col:       col,
				SubSample: vs.SubSample,
			})
		}
	}
	return specs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
