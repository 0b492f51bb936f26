package viewport

import (
	"fmt"
	"math"
)

// Size is a width/height pair in device-independent units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s Size) validate(name string) error {
	if !isPositive(s.Width) || !isPositive(s.Height) {
		return fmt.Errorf("%s %gx%g: %w", name, s.Width, s.Height, ErrInvalidSize)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isPositive(v float64) bool {
	return isFinite(v) && v > 0
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// TransformResult is the scale and translation to apply to the content
// element. The element is anchored at its top-left corner.
type TransformResult struct {
	Scale        float64 `json:"scale"`
	TranslationX float64 `json:"translationX"`
	TranslationY float64 `json:"translationY"`
}

// Identity is the untransformed state.
var Identity = TransformResult{Scale: 1}

// Matrix returns the affine matrix that maps content space into parent
// space, given the content's laid-out position in the parent.
func (t TransformResult) Matrix(origin Point) Matrix2D {
	return Translate(origin.X+t.TranslationX, origin.Y+t.TranslationY).
		Multiply(ScaleMatrix(t.Scale, t.Scale))
}

// ToContent maps a point in parent space back into unscaled content space.
func (t TransformResult) ToContent(p, origin Point) Point {
	x, y := t.Matrix(origin).Invert().TransformPoint(p.X, p.Y)
	return Point{X: x, Y: y}
}
