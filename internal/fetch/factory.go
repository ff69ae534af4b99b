package fetch

import (
	"fmt"
	"image"

	"go.uber.org/zap"

	"tileview/internal/pool"
)

// NewSource creates a tile source by kind. cacheTiles > 0 wraps the
// source with a decoded-tile LRU.
func NewSource(kind, dir, imagePath string, cacheTiles int, rasters *pool.Pool[*image.RGBA], log *zap.Logger) (Source, error) {
	var src Source

	switch kind {
	case "synthetic":
		log.Info("Using synthetic tile source")
		src = &Synthetic{Rasters: rasters}
	case "dir":
		log.Info("Using directory tile source", zap.String("root", dir))
		src = &DirSource{Root: dir, Rasters: rasters}
	case "vips":
		log.Info("Using vips tile source", zap.String("image", imagePath))
		vs, err := NewVipsSource(imagePath, rasters, log)
		if err != nil {
			return nil, err
		}
		src = vs
	default:
		return nil, fmt.Errorf("unknown source kind: %s (supported: synthetic, dir, vips)", kind)
	}

	if cacheTiles > 0 {
		log.Info("Caching decoded tiles", zap.Int("max_tiles", cacheTiles))
		src = NewCached(src, cacheTiles)
	}
	return src, nil
}
