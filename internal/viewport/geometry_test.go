package viewport

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMatrixInvert(t *testing.T) {
	m := Translate(30, -12).Multiply(ScaleMatrix(4, 4))
	x, y := m.TransformPoint(5, 7)
	if x != 50 || y != 16 {
		t.Fatalf("TransformPoint = (%g, %g), want (50, 16)", x, y)
	}
	bx, by := m.Invert().TransformPoint(x, y)
	if diff := cmp.Diff([]float64{5, 7}, []float64{bx, by}, approx); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	if got := (Matrix2D{}).Invert(); got != IdentityMatrix() {
		t.Errorf("singular Invert = %v, want identity", got)
	}
}

func TestTransformResultMatrix(t *testing.T) {
	tr := TransformResult{Scale: 2, TranslationX: -50, TranslationY: 10}
	got := tr.Matrix(Point{100, 20}).ToSlice()
	want := []float64{2, 0, 0, 2, 50, 30}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Matrix mismatch (-want +got):\n%s", diff)
	}

	p := tr.ToContent(Point{150, 50}, Point{100, 20})
	if diff := cmp.Diff(Point{50, 10}, p, approx); diff != "" {
		t.Errorf("ToContent mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutProvider(t *testing.T) {
	var nilLayout *Layout
	if _, ok := nilLayout.ParentSize(); ok {
		t.Error("nil layout reports a parent size")
	}

	l := NewLayout(Size{300, 200}, Size{100, 50})
	pos, ok := l.ContentRenderedPosition()
	if !ok {
		t.Fatal("centered position unknown")
	}
	if diff := cmp.Diff(Point{100, 75}, pos); diff != "" {
		t.Errorf("centered position mismatch (-want +got):\n%s", diff)
	}

	l.Position = &Point{4, 8}
	pos, _ = l.ContentRenderedPosition()
	if diff := cmp.Diff(Point{4, 8}, pos); diff != "" {
		t.Errorf("explicit position mismatch (-want +got):\n%s", diff)
	}

	c := l.Clone()
	c.Parent.Width = 1
	if l.Parent.Width != 300 {
		t.Error("Clone shares the parent size")
	}

	if err := (&Layout{Content: &Size{-1, 5}}).Validate(); err == nil {
		t.Error("Validate accepted a negative content width")
	}
	if err := (&Layout{}).Validate(); err != nil {
		t.Errorf("Validate(empty) = %v, want nil", err)
	}
}
