package imaging

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	// paletteSampleWidth is the thumbnail width the palette is computed on.
	paletteSampleWidth = 96

	// mergeDistance is the CIE Lab distance below which two quantised
	// buckets are reported as one colour.
	mergeDistance = 0.08
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// ColorFrequency represents a color and its share of the image.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB"
	Percentage float64  `json:"percentage"` // Percentage of sampled pixels (0-100)
	RGB        RGBColor `json:"rgb"`
	HSL        HSLColor `json:"hsl"`
}

// DominantColorsResult contains the most frequently occurring colors in an image.
//
// Colors are sorted by frequency in descending order (most common first).
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"`
}

// Summary renders the palette as a short human-readable list, for example
// "#F00000 (48%), #0000F0 (30%)".
func (r *DominantColorsResult) Summary() string {
	parts := make([]string, 0, len(r.Colors))
	for _, c := range r.Colors {
		parts = append(parts, fmt.Sprintf("%s (%.0f%%)", c.Hex, c.Percentage))
	}
	return strings.Join(parts, ", ")
}

type bucket struct {
	color colorful.Color
	count int
}

// DominantColors extracts the N most common colors from an image.
//
// Parameters:
//   - img: The source image to analyze.
//   - count: Maximum number of colors to return. Values <= 0 default to 5.
//
// Returns:
//   - *DominantColorsResult: The dominant colors sorted by frequency.
//   - error: Non-nil if the image is empty.
//
// # Color Quantization
//
// The image is first reduced to a small thumbnail. Each pixel is quantised
// by dividing every RGB component by 16 and rounding down, then quantised
// buckets that are perceptually close (CIE Lab distance below mergeDistance)
// are merged into the more frequent one. Fully transparent pixels are skipped.
func DominantColors(img image.Image, count int) (*DominantColorsResult, error) {
	if count <= 0 {
		count = 5
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("image is empty")
	}

	sample := image.Image(img)
	if img.Bounds().Dx() > paletteSampleWidth {
		sample = imaging.Resize(img, paletteSampleWidth, 0, imaging.Box)
	}

	counts := make(map[RGBColor]int)
	total := 0
	bounds := sample.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := sample.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			key := RGBColor{
				R: uint8((r >> 8) / 16 * 16),
				G: uint8((g >> 8) / 16 * 16),
				B: uint8((b >> 8) / 16 * 16),
			}
			counts[key]++
			total++
		}
	}
	if total == 0 {
		return &DominantColorsResult{Colors: []ColorFrequency{}}, nil
	}

	buckets := make([]bucket, 0, len(counts))
	for k, n := range counts {
		buckets = append(buckets, bucket{
			color: colorful.Color{R: float64(k.R) / 255, G: float64(k.G) / 255, B: float64(k.B) / 255},
			count: n,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].color.Hex() < buckets[j].color.Hex()
	})

	merged := make([]bucket, 0, count)
	for _, b := range buckets {
		absorbed := false
		for i := range merged {
			if merged[i].color.DistanceLab(b.color) < mergeDistance {
				merged[i].count += b.count
				absorbed = true
				break
			}
		}
		if !absorbed {
			merged = append(merged, b)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].count > merged[j].count
	})
	if len(merged) > count {
		merged = merged[:count]
	}

	colors := make([]ColorFrequency, 0, len(merged))
	for _, b := range merged {
		r, g, bl := b.color.RGB255()
		h, s, l := b.color.Hsl()
		colors = append(colors, ColorFrequency{
			Hex:        strings.ToUpper(b.color.Hex()),
			Percentage: float64(b.count) / float64(total) * 100,
			RGB:        RGBColor{R: r, G: g, B: bl},
			HSL:        HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
		})
	}

	return &DominantColorsResult{Colors: colors}, nil
}
