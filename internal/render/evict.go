package render

import "tileview/internal/grid"

// VisibleFunc recomputes the visible set for the last known viewport at an
// arbitrary level and subsample factor. Pure, so eviction may call it per
// level without side effects.
type VisibleFunc func(level, subSample int) grid.VisibleSet

// EvictStale runs the unconditional pass: every tile at the current level
// and subsample that fell outside the visible set is directly superseded
// and dropped immediately. Returns the number of tiles removed.
func (s *Set) EvictStale(vs grid.VisibleSet) int {
	return s.removeIf(func(t *Tile) bool {
		return t.Spec.Level == vs.Level &&
			t.Spec.SubSample == vs.SubSample &&
			!vs.Contains(t.Spec.Row, t.Spec.Col)
	})
}

// EvictPartial is the conservative policy used while a viewport change is
// in flight. Tiles of other levels and subsampled stand-ins are only
// dropped when they do not even overlap the visible range recomputed at
// their own level; anything that might still serve as a placeholder for a
// not-yet-loaded current tile is kept.
func (s *Set) EvictPartial(vs grid.VisibleSet, visibleAt VisibleFunc) int {
	// One recompute per distinct other level present in the set.
	levels := make(map[int]grid.VisibleSet)
	for _, t := range s.tiles {
		if t.Spec.SubSample == 0 && t.Spec.Level != vs.Level {
			if _, ok := levels[t.Spec.Level]; !ok {
				levels[t.Spec.Level] = visibleAt(t.Spec.Level, 0)
			}
		}
	}

	removed := s.removeIf(func(t *Tile) bool {
		if t.Spec.SubSample != 0 || t.Spec.Level == vs.Level {
			return false
		}
		return !levels[t.Spec.Level].Overlaps(t.Spec.Row, t.Spec.Col)
	})

	// Subsampled stand-ins live at level 0; check them against the
	// level-0 range at the current subsample factor.
	hasSub := false
	for _, t := range s.tiles {
		if t.Spec.SubSample > 0 {
			hasSub = true
			break
		}
	}
	if hasSub {
		sub := visibleAt(0, vs.SubSample)
		removed += s.removeIf(func(t *Tile) bool {
			return t.Spec.SubSample > 0 && !sub.Overlaps(t.Spec.Row, t.Spec.Col)
		})
	}
	return removed
}

// EvictAggressive is the idle policy: once the current level and subsample
// fully cover the viewport, every other-level tile and every stand-in with
// a different subsample is redundant. If the current level is still
// loading (fewer rendered tiles than expected visible tiles) it does
// nothing, so placeholders are never stripped early.
func (s *Set) EvictAggressive(vs grid.VisibleSet, expected int) int {
	if s.CountAt(vs.Level, vs.SubSample) < expected {
		return 0
	}
	return s.removeIf(func(t *Tile) bool {
		if t.Spec.Level != vs.Level {
			return true
		}
		return t.Spec.SubSample > 0 && t.Spec.SubSample != vs.SubSample
	})
}
