package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-captioner/internal/viewport"
)

// RenderResult contains a rendered preview encoded as base64 PNG.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	GridSpacing int    `json:"grid_spacing,omitempty"`
}

// VisibleRegion computes which part of an image ends up on a surface under a
// transform.
//
// The image is placed at its natural size, centred on a width x height
// surface, scaled about its own centre by t.Scale and then moved by t.Offset.
// This is the placement a browser produces for a centred <img> with
// "translate(x, y) scale(s)".
//
// Returns:
//   - dst: Surface pixels covered by the image, clipped to the surface.
//   - src: Image pixels (relative to the image's top-left) that map onto dst.
//   - ok: false when the image lies entirely outside the surface.
func VisibleRegion(imgW, imgH int, t viewport.ViewTransform, width, height int) (dst, src image.Rectangle, ok bool) {
	if imgW <= 0 || imgH <= 0 || width <= 0 || height <= 0 || t.Scale <= 0 {
		return image.Rectangle{}, image.Rectangle{}, false
	}

	scaledW := float64(imgW) * t.Scale
	scaledH := float64(imgH) * t.Scale
	left := float64(width)/2 + t.Offset.X - scaledW/2
	top := float64(height)/2 + t.Offset.Y - scaledH/2

	x0 := int(math.Floor(math.Max(0, left)))
	y0 := int(math.Floor(math.Max(0, top)))
	x1 := int(math.Ceil(math.Min(float64(width), left+scaledW)))
	y1 := int(math.Ceil(math.Min(float64(height), top+scaledH)))
	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}, image.Rectangle{}, false
	}

	sx0 := clampInt(int(math.Floor((float64(x0)-left)/t.Scale)), 0, imgW)
	sy0 := clampInt(int(math.Floor((float64(y0)-top)/t.Scale)), 0, imgH)
	sx1 := clampInt(int(math.Ceil((float64(x1)-left)/t.Scale)), 0, imgW)
	sy1 := clampInt(int(math.Ceil((float64(y1)-top)/t.Scale)), 0, imgH)
	if sx1 <= sx0 || sy1 <= sy0 {
		return image.Rectangle{}, image.Rectangle{}, false
	}

	return image.Rect(x0, y0, x1, y1), image.Rect(sx0, sy0, sx1, sy1), true
}

// MaxSurfaceSide is the largest surface side RenderViewport allocates.
const MaxSurfaceSide = 16384

// RenderViewport draws img onto a width x height surface filled with bg,
// placed according to t. Only the visible part of the source is resampled,
// so large zoom factors do not scale the whole image.
func RenderViewport(img image.Image, t viewport.ViewTransform, width, height int, bg color.Color) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || width > MaxSurfaceSide || height > MaxSurfaceSide {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	surface := imaging.New(width, height, bg)
	b := img.Bounds()
	dst, src, ok := VisibleRegion(b.Dx(), b.Dy(), t, width, height)
	if !ok {
		return surface, nil
	}

	part := imaging.Crop(img, src.Add(b.Min))
	part = imaging.Resize(part, dst.Dx(), dst.Dy(), imaging.Linear)
	return imaging.Overlay(surface, part, dst.Min, 1.0), nil
}

// RenderPreview renders the viewport, draws grid over it and encodes the
// result as base64 PNG.
func RenderPreview(img image.Image, t viewport.ViewTransform, width, height int, bg color.Color, grid Grid) (*RenderResult, error) {
	surface, err := RenderViewport(img, t, width, height, bg)
	if err != nil {
		return nil, err
	}
	DrawGrid(surface, grid)

	data, err := EncodePNG(surface)
	if err != nil {
		return nil, err
	}

	return &RenderResult{
		Width:       width,
		Height:      height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
		GridSpacing: max(grid.Spacing, 0),
	}, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes img as JPEG at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(quality)(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
