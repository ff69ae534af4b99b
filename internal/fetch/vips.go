package fetch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"path/filepath"
	"strings"

	"github.com/cshum/vipsgen/vips"
	"go.uber.org/zap"

	"tileview/internal/grid"
	"tileview/internal/pool"
)

// VipsSource derives tiles from one large source image via libvips:
// extract the tile's region, resize to tile scale and decode into a
// pooled raster. Level maxZoom shows the image at native resolution; each
// level below halves it. The caller owns the vips Startup/Shutdown
// lifecycle.
type VipsSource struct {
	path    string
	width   int
	height  int
	maxZoom int
	rasters *pool.Pool[*image.RGBA]
	logger  *zap.Logger
}

// NewVipsSource probes the source image once to learn its dimensions.
func NewVipsSource(path string, rasters *pool.Pool[*image.RGBA], logger *zap.Logger) (*VipsSource, error) {
	img, err := openVips(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}
	defer img.Close()

	s := &VipsSource{
		path:    path,
		width:   img.Width(),
		height:  img.Height(),
		rasters: rasters,
		logger:  logger,
	}
	s.maxZoom = maxZoomFor(s.width, s.height)

	logger.Info("vips tile source ready",
		zap.String("path", path),
		zap.Int("width", s.width),
		zap.Int("height", s.height),
		zap.Int("max_zoom", s.maxZoom))
	return s, nil
}

// MaxZoom returns the deepest level with native resolution.
func (s *VipsSource) MaxZoom() int { return s.maxZoom }

func (s *VipsSource) Load(ctx context.Context, spec grid.TileSpec) (*image.RGBA, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	level := spec.Level
	if level > s.maxZoom {
		return nil, false, fmt.Errorf("level %d exceeds max zoom %d", level, s.maxZoom)
	}

	// Source pixels per delivered tile at this level; subsampled
	// stand-ins cover (1<<sub) times the span.
	pixelsPerTile := float64(TileSize) * math.Pow(2, float64(s.maxZoom-level+spec.SubSample))

	startX := int(float64(spec.Col) * pixelsPerTile)
	startY := int(float64(spec.Row) * pixelsPerTile)
	endX := int(math.Min(float64(startX)+pixelsPerTile, float64(s.width)))
	endY := int(math.Min(float64(startY)+pixelsPerTile, float64(s.height)))

	width := endX - startX
	height := endY - startY
	if width <= 0 || height <= 0 {
		return nil, false, fmt.Errorf("tile %s outside source bounds", spec)
	}

	img, err := openVips(s.path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open source image: %w", err)
	}
	defer img.Close()

	if err := img.ExtractArea(startX, startY, width, height); err != nil {
		return nil, false, fmt.Errorf("failed to extract area: %w", err)
	}

	resizeOpts := vips.DefaultResizeOptions()
	resizeOpts.Kernel = vips.KernelLanczos3
	if err := img.Resize(float64(TileSize)/pixelsPerTile, resizeOpts); err != nil {
		return nil, false, fmt.Errorf("failed to resize: %w", err)
	}

	// Edge tiles come out short; pad to the full tile, anchored top-left.
	if img.Width() < TileSize || img.Height() < TileSize {
		embedOpts := vips.DefaultEmbedOptions()
		embedOpts.Extend = vips.ExtendBackground
		embedOpts.Background = []float64{221, 221, 221}
		if err := img.Embed(0, 0, TileSize, TileSize, embedOpts); err != nil {
			return nil, false, fmt.Errorf("failed to pad: %w", err)
		}
	}

	jpegOpts := vips.DefaultJpegsaveBufferOptions()
	jpegOpts.Q = 82
	jpegOpts.Interlace = false
	data, err := img.JpegsaveBuffer(jpegOpts)
	if err != nil {
		return nil, false, fmt.Errorf("failed to export: %w", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode tile: %w", err)
	}

	out := s.buffer()
	draw.Draw(out, out.Bounds(), decoded, decoded.Bounds().Min, draw.Src)
	return out, false, nil
}

func (s *VipsSource) buffer() *image.RGBA {
	if s.rasters != nil {
		if img, ok := s.rasters.Get(); ok {
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
}

// maxZoomFor computes the deepest level so that the larger image
// dimension fits 2^z tiles.
func maxZoomFor(width, height int) int {
	maxDim := math.Max(float64(width), float64(height))
	z := int(math.Ceil(math.Log2(maxDim / float64(TileSize))))
	if z < 0 {
		return 0
	}
	return z
}

// openVips loads an image by extension with random access, the right mode
// for repeated region extraction from large files.
func openVips(path string) (*vips.Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".tif", ".tiff":
		opts := vips.DefaultTiffloadOptions()
		opts.Access = vips.AccessRandom
		return vips.NewTiffload(path, opts)
	case ".jpg", ".jpeg":
		opts := vips.DefaultJpegloadOptions()
		opts.Access = vips.AccessRandom
		return vips.NewJpegload(path, opts)
	case ".png":
		opts := vips.DefaultPngloadOptions()
		opts.Access = vips.AccessRandom
		return vips.NewPngload(path, opts)
	case ".webp":
		opts := vips.DefaultWebploadOptions()
		opts.Access = vips.AccessRandom
		return vips.NewWebpload(path, opts)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", ext)
	}
}
