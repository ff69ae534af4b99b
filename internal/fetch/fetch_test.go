package fetch

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"tileview/internal/grid"
	"tileview/internal/pipeline"
	"tileview/internal/pool"
)

// flakySource fails every spec whose row is odd.
type flakySource struct {
	loads atomic.Int64
}

func (f *flakySource) Load(_ context.Context, spec grid.TileSpec) (*image.RGBA, bool, error) {
	f.loads.Add(1)
	if spec.Row%2 == 1 {
		return nil, false, errors.New("decode failed")
	}
	return image.NewRGBA(image.Rect(0, 0, TileSize, TileSize)), false, nil
}

func TestWorkers_DeliverDecodedTiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe := pipeline.New(zap.NewNop())
	src := &Synthetic{}
	w := NewWorkers(2, src, zap.NewNop())
	w.Run(ctx, pipe)

	vs := grid.VisibleSet{
		Level: 3, Count: 2,
		Rows:   map[int]grid.ColRange{0: {Min: 0, Max: 1}},
		MinRow: 0, MaxRow: 0, MinCol: 0, MaxCol: 1,
	}
	pipe.Submit(ctx, vs, func(grid.TileSpec) bool { return false })

	for i := range 2 {
		select {
		case tile := <-pipe.Results():
			if tile.Image == nil {
				t.Errorf("tile %d delivered without image", i)
			}
			if tile.Spec.Level != 3 {
				t.Errorf("tile %d Level = %d, want 3", i, tile.Spec.Level)
			}
		case <-time.After(time.Second):
			t.Fatalf("tile %d never delivered", i)
		}
	}

	cancel()
	w.Wait()
}

func TestWorkers_FailedLoadIsSkipped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe := pipeline.New(zap.NewNop())
	src := &flakySource{}
	w := NewWorkers(1, src, zap.NewNop())
	w.Run(ctx, pipe)

	// Rows 0..2: row 1 fails, rows 0 and 2 deliver.
	vs := grid.VisibleSet{
		Level: 2, Count: 3,
		Rows: map[int]grid.ColRange{
			0: {Min: 0, Max: 0}, 1: {Min: 0, Max: 0}, 2: {Min: 0, Max: 0},
		},
		MinRow: 0, MaxRow: 2, MinCol: 0, MaxCol: 0,
	}
	pipe.Submit(ctx, vs, func(grid.TileSpec) bool { return false })

	var rows []int
	for range 2 {
		select {
		case tile := <-pipe.Results():
			rows = append(rows, tile.Spec.Row)
		case <-time.After(time.Second):
			t.Fatal("delivery stalled after a failed load")
		}
	}
	for _, r := range rows {
		if r == 1 {
			t.Error("failed spec was delivered")
		}
	}

	cancel()
	w.Wait()
}

func TestSynthetic_UsesPooledBuffers(t *testing.T) {
	rasters := pool.New[*image.RGBA]()
	recycled := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	rasters.Put(recycled)

	src := &Synthetic{Rasters: rasters}
	img, shared, err := src.Load(context.Background(), grid.TileSpec{Level: 1})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if shared {
		t.Error("synthetic tile reported shared")
	}
	if img != recycled {
		t.Error("pooled buffer was not reused")
	}
	if rasters.Len() != 0 {
		t.Errorf("raster pool Len() = %d, want 0", rasters.Len())
	}
}

func TestCached_ServesSharedImages(t *testing.T) {
	src := &Synthetic{}
	cached := NewCached(src, 4)

	spec := grid.TileSpec{Level: 2, Row: 1, Col: 1}

	first, shared, err := cached.Load(context.Background(), spec)
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if !shared {
		t.Error("cache-stored image not marked shared")
	}

	second, shared, err := cached.Load(context.Background(), spec)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if !shared {
		t.Error("cache hit not marked shared")
	}
	if first != second {
		t.Error("cache hit returned a different image")
	}
	if cached.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cached.Len())
	}
}

func TestCached_EvictsOldest(t *testing.T) {
	var loads atomic.Int64
	src := countingSource{&loads}
	cached := NewCached(src, 2)
	ctx := context.Background()

	a := grid.TileSpec{Level: 1, Row: 0, Col: 0}
	b := grid.TileSpec{Level: 1, Row: 0, Col: 1}
	c := grid.TileSpec{Level: 1, Row: 1, Col: 0}

	cached.Load(ctx, a)
	cached.Load(ctx, b)
	cached.Load(ctx, c) // evicts a
	cached.Load(ctx, a) // reloads

	if got := loads.Load(); got != 4 {
		t.Errorf("inner loads = %d, want 4", got)
	}
	if cached.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cached.Len())
	}
}

type countingSource struct{ loads *atomic.Int64 }

func (s countingSource) Load(context.Context, grid.TileSpec) (*image.RGBA, bool, error) {
	s.loads.Add(1)
	return image.NewRGBA(image.Rect(0, 0, TileSize, TileSize)), false, nil
}

func TestNewSource_UnknownKind(t *testing.T) {
	_, err := NewSource("bogus", "", "", 0, nil, zap.NewNop())
	if err == nil {
		t.Error("NewSource accepted an unknown kind")
	}
}
