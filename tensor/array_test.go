package tensor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromSliceRejectsWrongSize(t *testing.T) {
	if _, err := FromSlice([]float64{1, 2, 3}, 2, 2); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
}

func TestIndexSelectsLeadingAxis(t *testing.T) {
	a, err := FromSlice([]float64{0, 1, 2, 3, 4, 5, 6, 7}, 2, 2, 2)
	if err != nil {
		t.Fatalf("FromSlice error: %v", err)
	}
	b, err := a.Index(1)
	if err != nil {
		t.Fatalf("Index error: %v", err)
	}
	if diff := cmp.Diff([]int{2, 2}, b.Shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{4, 5, 6, 7}, b.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if _, err := a.Index(2); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for out of range index, got %v", err)
	}
}

func TestConcatChannelAxis(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3, 4}, 1, 1, 2, 2)
	b, _ := FromSlice([]float64{5, 6, 7, 8, 9, 10, 11, 12}, 1, 2, 2, 2)
	c, err := Concat(a, b, 1)
	if err != nil {
		t.Fatalf("Concat error: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3, 2, 2}, c.Shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, c.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	bad, _ := FromSlice([]float64{1, 2}, 1, 1, 1, 2)
	if _, err := Concat(a, bad, 1); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for mismatched spatial dims, got %v", err)
	}
}

func TestConcatBatchedInterleaves(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2}, 2, 1)
	b, _ := FromSlice([]float64{3, 4}, 2, 1)
	c, err := Concat(a, b, 1)
	if err != nil {
		t.Fatalf("Concat error: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 3, 2, 4}, c.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestMinMaxAndShapeString(t *testing.T) {
	a, _ := FromSlice([]float64{3, -1, 7, 2}, 2, 2)
	if a.Min() != -1 || a.Max() != 7 {
		t.Fatalf("min/max = %v/%v, want -1/7", a.Min(), a.Max())
	}
	if got := ShapeString([]int{1, 64, 32, 32}); got != "(1, 64, 32, 32)" {
		t.Fatalf("ShapeString = %q", got)
	}
	if got := ShapeString([]int{5}); got != "(5,)" {
		t.Fatalf("ShapeString = %q", got)
	}
}

func TestGomlxRoundTrip(t *testing.T) {
	a, _ := FromSlice([]float64{0.5, 1.5, 2.5, 3.5, 4.5, 5.5}, 1, 2, 3)
	back, err := GomlxConverter(a.ToGomlx())
	if err != nil {
		t.Fatalf("FromGomlx error: %v", err)
	}
	if diff := cmp.Diff(a.Shape, back.Shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(a.Data, back.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}
