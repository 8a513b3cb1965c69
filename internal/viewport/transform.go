package viewport

import "fmt"

const (
	// MinScale is the smallest zoom factor a transform may hold.
	MinScale = 0.5

	// MaxScale is the largest zoom factor a transform may hold.
	MaxScale = 5.0

	// WheelSensitivity converts wheel deltaY units into scale units.
	WheelSensitivity = 0.005

	// StepFactor is the multiplier applied by one zoom-in button press.
	StepFactor = 1.2
)

// Point is a position or displacement in surface pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// ViewTransform is the translate+scale applied to the displayed image,
// relative to its natural centred position.
type ViewTransform struct {
	Scale  float64 `json:"scale"`
	Offset Point   `json:"offset"`
}

// Identity returns the transform that shows the image at natural size and
// position.
func Identity() ViewTransform {
	return ViewTransform{Scale: 1}
}

// Apply maps a point given relative to the image centre to a point relative
// to the surface centre.
func (t ViewTransform) Apply(p Point) Point {
	return Point{X: p.X*t.Scale + t.Offset.X, Y: p.Y*t.Scale + t.Offset.Y}
}

// Invert maps a point relative to the surface centre back into image-centre
// coordinates. It is the inverse of Apply.
func (t ViewTransform) Invert(p Point) Point {
	return Point{X: (p.X - t.Offset.X) / t.Scale, Y: (p.Y - t.Offset.Y) / t.Scale}
}

// CSS renders the transform the way a browser would apply it to an <img>.
func (t ViewTransform) CSS() string {
	return fmt.Sprintf("translate(%gpx, %gpx) scale(%g)", t.Offset.X, t.Offset.Y, t.Scale)
}

// Clamp restricts value to [min, max], inclusive on both ends.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func clampScale(s float64) float64 {
	return Clamp(s, MinScale, MaxScale)
}
