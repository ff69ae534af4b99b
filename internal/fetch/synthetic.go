package fetch

import (
	"context"
	"image"
	"image/color"
	"time"

	"tileview/internal/grid"
	"tileview/internal/pool"
)

// Synthetic renders procedural checker tiles. It exists for demos and
// tests that need a source with no data on disk; Delay simulates decode
// latency.
type Synthetic struct {
	Rasters *pool.Pool[*image.RGBA]
	Delay   time.Duration
}

func (s *Synthetic) Load(ctx context.Context, spec grid.TileSpec) (*image.RGBA, bool, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	img := s.buffer()

	// Checker shade keyed by position, darkening with depth so zoom
	// changes are visible in the demo.
	shade := uint8(220 - 10*(spec.Level%8))
	if (spec.Row+spec.Col)%2 == 0 {
		shade -= 40
	}
	c := color.RGBA{R: shade, G: shade, B: shade, A: 255}
	for y := range TileSize {
		for x := range TileSize {
			img.SetRGBA(x, y, c)
		}
	}
	return img, false, nil
}

func (s *Synthetic) buffer() *image.RGBA {
	if s.Rasters != nil {
		if img, ok := s.Rasters.Get(); ok {
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
}
