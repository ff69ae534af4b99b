package grid

import (
	"testing"

	"github.com/paulmach/orb"
)

// worldBound covers the whole mercator world.
func worldBound() orb.Bound {
	return orb.Bound{Min: orb.Point{-179.9, -85.0}, Max: orb.Point{179.9, 85.0}}
}

func TestComputeVisible_WholeWorldLevelZero(t *testing.T) {
	vp := Viewport{Bound: worldBound(), Level: 0}

	vs := ComputeVisible(vp, 0, 0)

	if vs.Count != 1 {
		t.Fatalf("Count = %d, want 1", vs.Count)
	}
	if !vs.Contains(0, 0) {
		t.Error("level-0 set does not contain tile (0,0)")
	}
}

func TestComputeVisible_WholeWorldLevelTwo(t *testing.T) {
	vp := Viewport{Bound: worldBound(), Level: 2}

	vs := ComputeVisible(vp, 2, 0)

	if vs.Count != 16 {
		t.Errorf("Count = %d, want 16", vs.Count)
	}
	if !vs.Contains(0, 0) || !vs.Contains(3, 3) {
		t.Error("corner tiles missing from whole-world level-2 set")
	}
	if vs.Contains(4, 0) {
		t.Error("row 4 reported visible at level 2")
	}
}

func TestComputeVisible_SmallViewport(t *testing.T) {
	// A small window around Vilnius at level 10 should produce a compact
	// rectangle, not the whole level.
	vp := Viewport{
		Bound: orb.Bound{Min: orb.Point{25.2, 54.6}, Max: orb.Point{25.4, 54.8}},
		Level: 10,
	}

	vs := ComputeVisible(vp, 10, 0)

	if vs.Count == 0 {
		t.Fatal("Count = 0, want > 0")
	}
	if vs.Count > 16 {
		t.Errorf("Count = %d, want a compact set", vs.Count)
	}
	if got := len(vs.Specs()); got != vs.Count {
		t.Errorf("len(Specs()) = %d, want Count = %d", got, vs.Count)
	}
}

func TestComputeVisible_SubSampleCollapsesGrid(t *testing.T) {
	vp := Viewport{Bound: worldBound(), Level: 2}

	full := ComputeVisible(vp, 2, 0)
	half := ComputeVisible(vp, 2, 1)

	if full.Count != 16 {
		t.Fatalf("full Count = %d, want 16", full.Count)
	}
	if half.Count != 4 {
		t.Errorf("subsampled Count = %d, want 4", half.Count)
	}
	if half.MaxRow != 1 || half.MaxCol != 1 {
		t.Errorf("subsampled bounds = (%d,%d), want (1,1)", half.MaxRow, half.MaxCol)
	}
}

func TestVisibleSet_SpecsOrder(t *testing.T) {
	vp := Viewport{Bound: worldBound(), Level: 1}

	specs := ComputeVisible(vp, 1, 0).Specs()

	want := []TileSpec{
		{Level: 1, Row: 0, Col: 0}, {Level: 1, Row: 0, Col: 1},
		{Level: 1, Row: 1, Col: 0}, {Level: 1, Row: 1, Col: 1},
	}
	if len(specs) != len(want) {
		t.Fatalf("len(specs) = %d, want %d", len(specs), len(want))
	}
	for i, s := range specs {
		if s != want[i] {
			t.Errorf("specs[%d] = %v, want %v", i, s, want[i])
		}
	}
}

func TestVisibleSet_OverlapsCoarserThanContains(t *testing.T) {
	vs := VisibleSet{
		Level:  3,
		Count:  4,
		Rows:   map[int]ColRange{2: {Min: 1, Max: 2}, 3: {Min: 1, Max: 2}},
		MinRow: 2, MaxRow: 3,
		MinCol: 1, MaxCol: 2,
	}

	if !vs.Overlaps(2, 1) {
		t.Error("Overlaps rejected a contained position")
	}
	if vs.Overlaps(5, 1) {
		t.Error("Overlaps accepted a row outside the box")
	}
	if vs.Contains(4, 1) {
		t.Error("Contains accepted a missing row")
	}
}

func TestVisibleSet_Covers(t *testing.T) {
	vp := Viewport{Bound: worldBound(), Level: 1}
	vs := ComputeVisible(vp, 1, 0)

	if !vs.Covers(TileSpec{Level: 1, Row: 0, Col: 0}) {
		t.Error("Covers rejected a visible spec")
	}
	if vs.Covers(TileSpec{Level: 2, Row: 0, Col: 0}) {
		t.Error("Covers accepted a spec at another level")
	}
	if vs.Covers(TileSpec{Level: 1, Row: 0, Col: 0, SubSample: 1}) {
		t.Error("Covers accepted a spec with another subsample")
	}
}
