package interaction

import (
	"math"

	"cardstudio/core"
)

// Geometry limits enforced while dragging.
const (
	ImageWidthMin      = 20.0
	ImageWidthMax      = 100.0
	ImageHeightMin     = 50.0
	MessageWidthMin    = 30.0
	MessageWidthMax    = 100.0
	DecorationScaleMin = 0.2
	CaptionScaleMin    = 0.5

	// DefaultCardWidth is used when the client does not report the card's rendered width.
	DefaultCardWidth = 1000.0
)

// Point is a screen-space coordinate in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Len is the Euclidean length of p taken as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Move offsets the snapshot position by the pointer delta.
func Move(from core.Position, delta Point) core.Position {
	return core.Position{X: from.X + delta.X, Y: from.Y + delta.Y}
}

// ResizeImage grows the image width (percent of card width) with the horizontal
// delta and its height (px) with the vertical delta.
func ResizeImage(width, height float64, delta Point, cardWidth float64) (float64, float64) {
	w := clamp(width+percentOf(delta.X, cardWidth), ImageWidthMin, ImageWidthMax)
	h := math.Max(ImageHeightMin, height+delta.Y)
	return w, h
}

// ResizeMessage grows the message box width (percent of card width).
// The height follows the content and is not adjustable.
func ResizeMessage(width float64, delta Point, cardWidth float64) float64 {
	return clamp(width+percentOf(delta.X, cardWidth), MessageWidthMin, MessageWidthMax)
}

// Rotate adds the angle swept around pivot between start and current to the
// snapshot rotation, in degrees. The result is not wrapped. ok is false when
// either pointer sits exactly on the pivot and the angle is undefined.
func Rotate(rotation float64, pivot, start, current Point) (deg float64, ok bool) {
	s, c := start.Sub(pivot), current.Sub(pivot)
	if s.Len() == 0 || c.Len() == 0 {
		return rotation, false
	}
	swept := math.Atan2(c.Y, c.X) - math.Atan2(s.Y, s.X)
	return rotation + swept*180/math.Pi, true
}

// Scale multiplies the snapshot scale by the ratio of pointer distances from
// pivot, never going below floor. ok is false for a zero start or current distance.
func Scale(scale, floor float64, pivot, start, current Point) (float64, bool) {
	startDist := start.Sub(pivot).Len()
	currentDist := current.Sub(pivot).Len()
	if startDist == 0 || currentDist == 0 {
		return scale, false
	}
	return math.Max(floor, scale*currentDist/startDist), true
}

func percentOf(dx, cardWidth float64) float64 {
	if cardWidth <= 0 {
		cardWidth = DefaultCardWidth
	}
	return dx / cardWidth * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
