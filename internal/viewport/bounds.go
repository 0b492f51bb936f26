package viewport

import "fmt"

// Bounds is the legal translation range for the content at one scale.
//
// The content is anchored top-left for scaling but laid out centered in the
// parent at scale 1, so every bound carries the centering correction
// (parent - content) / 2.
type Bounds struct {
	ParentW float64 `json:"parentW"`
	ParentH float64 `json:"parentH"`
	ScaledW float64 `json:"scaledW"`
	ScaledH float64 `json:"scaledH"`

	XMin float64 `json:"xMin"`
	XMax float64 `json:"xMax"`
	YMin float64 `json:"yMin"`
	YMax float64 `json:"yMax"`

	WidthOverflows  bool `json:"widthOverflows"`
	HeightOverflows bool `json:"heightOverflows"`
}

// ComputeBounds returns the translation bounds for content of the given
// unscaled size inside parent at scale.
func ComputeBounds(parent, content Size, scale float64) (Bounds, error) {
	if err := parent.validate("parent"); err != nil {
		return Bounds{}, err
	}
	if err := content.validate("content"); err != nil {
		return Bounds{}, err
	}
	if !isPositive(scale) {
		return Bounds{}, fmt.Errorf("scale %g: %w", scale, ErrOutOfRangeInput)
	}

	b := Bounds{
		ParentW: parent.Width,
		ParentH: parent.Height,
		ScaledW: content.Width * scale,
		ScaledH: content.Height * scale,
	}
	b.WidthOverflows = b.ScaledW > b.ParentW
	b.HeightOverflows = b.ScaledH > b.ParentH

	b.XMin, b.XMax = axisBounds(parent.Width, content.Width, b.ScaledW, b.WidthOverflows)
	b.YMin, b.YMax = axisBounds(parent.Height, content.Height, b.ScaledH, b.HeightOverflows)
	return b, nil
}

func axisBounds(parent, content, scaled float64, overflows bool) (lo, hi float64) {
	gap := (parent - content) / 2
	if overflows {
		return -((scaled - parent) + gap), -gap
	}

	lo, hi = -gap, (parent-scaled)/2
	if lo > hi {
		// Content wider than the parent at scale 1 but fitting now: the only
		// sensible position is centered.
		c := centering(parent, content, scaled)
		return c, c
	}
	return lo, hi
}

// centering is the translation that centers scaled content in the parent.
func centering(parent, content, scaled float64) float64 {
	return -((parent-content)/2 - (parent-scaled)/2)
}

// ClampX clamps a horizontal translation into [XMin, XMax].
func (b Bounds) ClampX(x float64) float64 { return clamp(x, b.XMin, b.XMax) }

// ClampY clamps a vertical translation into [YMin, YMax].
func (b Bounds) ClampY(y float64) float64 { return clamp(y, b.YMin, b.YMax) }
