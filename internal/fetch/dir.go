package fetch

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/webp"
	xdraw "golang.org/x/image/draw"

	"tileview/internal/grid"
	"tileview/internal/pool"
)

// DirSource serves tiles from a slippy tile tree on disk:
// {root}/{level}/{col}/{row}.{png,jpg,jpeg,webp}. Subsampled specs fall
// back to the level-0 tile downscaled by the subsample factor.
type DirSource struct {
	Root    string
	Rasters *pool.Pool[*image.RGBA]
}

var dirExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

func (d *DirSource) Load(ctx context.Context, spec grid.TileSpec) (*image.RGBA, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	level, col, row := spec.Level, spec.Col, spec.Row
	if spec.SubSample > 0 {
		level, col, row = 0, 0, 0
	}

	src, err := d.decodeTile(level, col, row)
	if err != nil {
		return nil, false, err
	}

	out := d.buffer()
	if spec.SubSample > 0 {
		// Stand-in content: shrink by the subsample factor, then let the
		// presentation layer stretch it back over the wider span.
		small := TileSize >> spec.SubSample
		if small < 1 {
			small = 1
		}
		clearRGBA(out)
		xdraw.CatmullRom.Scale(out, image.Rect(0, 0, small, small), src, src.Bounds(), xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}
	return out, false, nil
}

func (d *DirSource) decodeTile(level, col, row int) (image.Image, error) {
	for _, ext := range dirExtensions {
		path := filepath.Join(d.Root,
			fmt.Sprintf("%d", level), fmt.Sprintf("%d", col), fmt.Sprintf("%d%s", row, ext))
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		defer f.Close()

		switch ext {
		case ".png":
			img, err := png.Decode(f)
			return img, err
		case ".jpg", ".jpeg":
			img, err := jpeg.Decode(f)
			return img, err
		case ".webp":
			img, err := webp.Decode(f)
			return img, err
		}
	}
	return nil, fmt.Errorf("no tile file for %d/%d/%d under %s", level, col, row, d.Root)
}

func (d *DirSource) buffer() *image.RGBA {
	if d.Rasters != nil {
		if img, ok := d.Rasters.Get(); ok {
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
}

func clearRGBA(img *image.RGBA) {
	for i := range img.Pix {
		img.Pix[i] = 0
	}
}
