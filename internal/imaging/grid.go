package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// DefaultGridColor is the semi-transparent red used for grid lines.
var DefaultGridColor = color.NRGBA{255, 0, 0, 128}

// Grid describes a coordinate grid drawn over a rendered preview. A zero
// Spacing draws nothing.
type Grid struct {
	Spacing int
	Labels  bool
	Color   color.Color
}

// DrawGrid draws g onto surface in surface coordinates. With labels, each
// intersection is tagged "x,y" so pointer positions can be read off the
// preview.
func DrawGrid(surface draw.Image, g Grid) {
	if g.Spacing <= 0 {
		return
	}
	lineColor := g.Color
	if lineColor == nil {
		lineColor = DefaultGridColor
	}
	line := image.NewUniform(lineColor)

	b := surface.Bounds()
	for x := b.Min.X + g.Spacing; x < b.Max.X; x += g.Spacing {
		draw.Draw(surface, image.Rect(x, b.Min.Y, x+1, b.Max.Y), line, image.Point{}, draw.Over)
	}
	for y := b.Min.Y + g.Spacing; y < b.Max.Y; y += g.Spacing {
		draw.Draw(surface, image.Rect(b.Min.X, y, b.Max.X, y+1), line, image.Point{}, draw.Over)
	}

	if !g.Labels {
		return
	}
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}
	for y := b.Min.Y + g.Spacing; y < b.Max.Y; y += g.Spacing {
		for x := b.Min.X + g.Spacing; x < b.Max.X; x += g.Spacing {
			drawLabel(surface, x+2, y+2, fmt.Sprintf("%d,%d", x-b.Min.X, y-b.Min.Y), fg, bg)
		}
	}
}

// labelGlyphs is a 3x5 pixel font for digits, comma and minus.
var labelGlyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	'-': {"000", "000", "111", "000", "000"},
}

// drawLabel draws text on a filled box with its top-left at (x, y).
// Unknown characters leave a gap. Pixels outside img are skipped.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	const charWidth = 4
	const labelHeight = 7

	box := image.Rect(x-1, y-1, x+len(text)*charWidth, y+labelHeight).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	bounds := img.Bounds()
	cx := x
	for _, ch := range text {
		glyph, ok := labelGlyphs[ch]
		if ok {
			for row, pixels := range glyph {
				for col, pixel := range pixels {
					p := image.Pt(cx+col, y+row)
					if pixel == '1' && p.In(bounds) {
						img.Set(p.X, p.Y, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
