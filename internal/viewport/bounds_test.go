package viewport

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestComputeBounds(t *testing.T) {
	tests := []struct {
		name    string
		parent  Size
		content Size
		scale   float64
		want    Bounds
	}{
		{
			name:    "fits exactly",
			parent:  Size{100, 100},
			content: Size{100, 100},
			scale:   1,
			want: Bounds{
				ParentW: 100, ParentH: 100, ScaledW: 100, ScaledH: 100,
				XMin: 0, XMax: 0, YMin: 0, YMax: 0,
			},
		},
		{
			name:    "centered gap",
			parent:  Size{300, 300},
			content: Size{100, 100},
			scale:   2,
			want: Bounds{
				ParentW: 300, ParentH: 300, ScaledW: 200, ScaledH: 200,
				XMin: -100, XMax: 50, YMin: -100, YMax: 50,
			},
		},
		{
			name:    "overflow both axes",
			parent:  Size{300, 300},
			content: Size{100, 100},
			scale:   8,
			want: Bounds{
				ParentW: 300, ParentH: 300, ScaledW: 800, ScaledH: 800,
				XMin: -600, XMax: -100, YMin: -600, YMax: -100,
				WidthOverflows: true, HeightOverflows: true,
			},
		},
		{
			name:    "overflow width only",
			parent:  Size{200, 400},
			content: Size{100, 100},
			scale:   3,
			want: Bounds{
				ParentW: 200, ParentH: 400, ScaledW: 300, ScaledH: 300,
				XMin: -150, XMax: -50, YMin: -150, YMax: 50,
				WidthOverflows: true,
			},
		},
		{
			name:    "content larger than parent scaled down",
			parent:  Size{100, 100},
			content: Size{300, 300},
			scale:   0.25,
			want: Bounds{
				ParentW: 100, ParentH: 100, ScaledW: 75, ScaledH: 75,
				XMin: 112.5, XMax: 112.5, YMin: 112.5, YMax: 112.5,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeBounds(tt.parent, tt.content, tt.scale)
			if err != nil {
				t.Fatalf("ComputeBounds: %v", err)
			}
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComputeBoundsOrdered(t *testing.T) {
	sizes := []Size{{50, 80}, {100, 100}, {300, 200}, {1024, 768}, {3000, 10}}
	for _, parent := range sizes {
		for _, content := range sizes {
			for scale := DefaultMinScale; scale <= DefaultMaxScale; scale *= 1.5 {
				b, err := ComputeBounds(parent, content, scale)
				if err != nil {
					t.Fatalf("ComputeBounds(%v, %v, %g): %v", parent, content, scale, err)
				}
				if b.XMin > b.XMax || b.YMin > b.YMax {
					t.Errorf("ComputeBounds(%v, %v, %g) = %+v, want ordered bounds", parent, content, scale, b)
				}
			}
		}
	}
}

func TestComputeBoundsErrors(t *testing.T) {
	tests := []struct {
		name    string
		parent  Size
		content Size
		scale   float64
		want    error
	}{
		{"zero parent width", Size{0, 100}, Size{10, 10}, 1, ErrInvalidSize},
		{"negative content height", Size{100, 100}, Size{10, -1}, 1, ErrInvalidSize},
		{"NaN parent", Size{math.NaN(), 100}, Size{10, 10}, 1, ErrInvalidSize},
		{"infinite content", Size{100, 100}, Size{math.Inf(1), 10}, 1, ErrInvalidSize},
		{"zero scale", Size{100, 100}, Size{10, 10}, 0, ErrOutOfRangeInput},
		{"NaN scale", Size{100, 100}, Size{10, 10}, math.NaN(), ErrOutOfRangeInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeBounds(tt.parent, tt.content, tt.scale)
			if !errors.Is(err, tt.want) {
				t.Errorf("ComputeBounds error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBoundsClamp(t *testing.T) {
	b := Bounds{XMin: -10, XMax: 5, YMin: 0, YMax: 0}
	if got := b.ClampX(-20); got != -10 {
		t.Errorf("ClampX(-20) = %g, want -10", got)
	}
	if got := b.ClampX(3); got != 3 {
		t.Errorf("ClampX(3) = %g, want 3", got)
	}
	if got := b.ClampY(7); got != 0 {
		t.Errorf("ClampY(7) = %g, want 0", got)
	}
}
