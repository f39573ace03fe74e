// Package tensor holds the dense arrays the renderers consume: encoding
// tensors, feature maps, coordinate and value arrays.
//
// Arrays are row-major float64 buffers with shape metadata. Model outputs in
// other tensor types (gomlx, or a model's own type) are turned into Arrays by
// a Converter chosen by the caller.
package tensor

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrShape is returned when an operation gets an array of the wrong shape.
var ErrShape = errors.New("tensor: invalid shape")

// Array is a dense row-major N-dimensional array.
type Array struct {
	Shape []int
	Data  []float64
}

// Converter turns a model-native tensor into an Array. It is passed
// explicitly to whatever needs it instead of being looked up from a
// globally configured backend.
type Converter[T any] func(T) (*Array, error)

// Identity is the Converter for models that already work on *Array.
func Identity(a *Array) (*Array, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil array", ErrShape)
	}
	return a, nil
}

// New allocates a zero-filled array.
func New(shape ...int) *Array {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Array{Shape: append([]int(nil), shape...), Data: make([]float64, n)}
}

// FromSlice wraps data with the given shape. data is not copied.
func FromSlice(data []float64, shape ...int) (*Array, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension in %v", ErrShape, shape)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d values do not fill shape %v", ErrShape, len(data), shape)
	}
	return &Array{Shape: append([]int(nil), shape...), Data: data}, nil
}

// Rank is the number of dimensions.
func (a *Array) Rank() int { return len(a.Shape) }

// Size is the total number of elements.
func (a *Array) Size() int { return len(a.Data) }

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	return &Array{Shape: append([]int(nil), a.Shape...), Data: append([]float64(nil), a.Data...)}
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx), len(a.Shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= a.Shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d of size %d", x, i, a.Shape[i]))
		}
		off = off*a.Shape[i] + x
	}
	return off
}

// At returns the element at idx.
func (a *Array) At(idx ...int) float64 { return a.Data[a.offset(idx)] }

// Set stores v at idx.
func (a *Array) Set(v float64, idx ...int) { a.Data[a.offset(idx)] = v }

// Index selects position i along the leading axis, returning a copy with
// one fewer dimension.
func (a *Array) Index(i int) (*Array, error) {
	if a.Rank() == 0 {
		return nil, fmt.Errorf("%w: cannot index a scalar", ErrShape)
	}
	if i < 0 || i >= a.Shape[0] {
		return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrShape, i, a.Shape[0])
	}
	stride := len(a.Data) / max(a.Shape[0], 1)
	out := New(a.Shape[1:]...)
	copy(out.Data, a.Data[i*stride:(i+1)*stride])
	return out, nil
}

// Concat joins a and b along axis. All other dimensions must match.
func Concat(a, b *Array, axis int) (*Array, error) {
	if a.Rank() != b.Rank() {
		return nil, fmt.Errorf("%w: concat rank %d with rank %d", ErrShape, a.Rank(), b.Rank())
	}
	if axis < 0 || axis >= a.Rank() {
		return nil, fmt.Errorf("%w: concat axis %d for rank %d", ErrShape, axis, a.Rank())
	}
	for i := range a.Shape {
		if i != axis && a.Shape[i] != b.Shape[i] {
			return nil, fmt.Errorf("%w: concat %v with %v on axis %d", ErrShape, a.Shape, b.Shape, axis)
		}
	}
	shape := append([]int(nil), a.Shape...)
	shape[axis] += b.Shape[axis]
	out := New(shape...)

	outer := 1
	for _, d := range a.Shape[:axis] {
		outer *= d
	}
	inner := 1
	for _, d := range a.Shape[axis+1:] {
		inner *= d
	}
	ca := a.Shape[axis] * inner
	cb := b.Shape[axis] * inner
	pos := 0
	for o := 0; o < outer; o++ {
		pos += copy(out.Data[pos:], a.Data[o*ca:(o+1)*ca])
		pos += copy(out.Data[pos:], b.Data[o*cb:(o+1)*cb])
	}
	return out, nil
}

// Min is the smallest element, or 0 for an empty array.
func (a *Array) Min() float64 {
	if len(a.Data) == 0 {
		return 0
	}
	return floats.Min(a.Data)
}

// Max is the largest element, or 0 for an empty array.
func (a *Array) Max() float64 {
	if len(a.Data) == 0 {
		return 0
	}
	return floats.Max(a.Data)
}

// ShapeString formats the shape like a Python tuple, e.g. "(1, 64, 32, 32)".
func ShapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	s := strings.Join(parts, ", ")
	if len(shape) == 1 {
		s += ","
	}
	return "(" + s + ")"
}
