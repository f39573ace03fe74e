// Package labeled provides an N-dimensional array whose axes carry names and
// coordinate values, the shape acquisition-function outputs come in (for
// example dims iteration, time, lat, lon).
package labeled

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Noofbiz/sensorviz/tensor"
)

// ErrNoDim is returned when a named dimension is missing.
var ErrNoDim = errors.New("labeled: no such dimension")

// Array is a named-axis array. Coords holds one coordinate value per
// position along each dim; Scalars holds coordinates of dims that were
// selected away.
type Array struct {
	Name    string
	Dims    []string
	Coords  map[string][]float64
	Scalars map[string]float64
	Data    *tensor.Array
}

// New builds and validates an Array. Missing coords default to 0..n-1.
func New(name string, dims []string, coords map[string][]float64, data *tensor.Array) (*Array, error) {
	a := &Array{
		Name:    name,
		Dims:    append([]string(nil), dims...),
		Coords:  make(map[string][]float64, len(dims)),
		Scalars: make(map[string]float64),
		Data:    data,
	}
	if data == nil || data.Rank() != len(dims) {
		return nil, fmt.Errorf("%w: %d dims for data of shape %v", tensor.ErrShape, len(dims), shapeOf(data))
	}
	for i, d := range dims {
		c, ok := coords[d]
		if !ok {
			c = make([]float64, data.Shape[i])
			for j := range c {
				c[j] = float64(j)
			}
		}
		a.Coords[d] = c
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func shapeOf(t *tensor.Array) []int {
	if t == nil {
		return nil
	}
	return t.Shape
}

// Validate checks that dims, coords and data agree.
func (a *Array) Validate() error {
	if a.Data == nil {
		return fmt.Errorf("%w: nil data", tensor.ErrShape)
	}
	if len(a.Dims) != a.Data.Rank() {
		return fmt.Errorf("%w: %d dims for data of shape %v", tensor.ErrShape, len(a.Dims), a.Data.Shape)
	}
	seen := make(map[string]bool, len(a.Dims))
	for i, d := range a.Dims {
		if seen[d] {
			return fmt.Errorf("%w: duplicate dim %q", tensor.ErrShape, d)
		}
		seen[d] = true
		if len(a.Coords[d]) != a.Data.Shape[i] {
			return fmt.Errorf("%w: dim %q has %d coords for size %d", tensor.ErrShape, d, len(a.Coords[d]), a.Data.Shape[i])
		}
	}
	return nil
}

// Has reports whether dim is one of the array's dims.
func (a *Array) Has(dim string) bool { return slices.Contains(a.Dims, dim) }

// Axis returns the position of dim.
func (a *Array) Axis(dim string) (int, error) {
	i := slices.Index(a.Dims, dim)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q (dims are %v)", ErrNoDim, dim, a.Dims)
	}
	return i, nil
}

// Size returns the length of dim, or 0 when absent.
func (a *Array) Size(dim string) int {
	i := slices.Index(a.Dims, dim)
	if i < 0 {
		return 0
	}
	return a.Data.Shape[i]
}

// Coord returns the coordinate values of dim. A scalar coordinate comes
// back as a single value.
func (a *Array) Coord(dim string) ([]float64, error) {
	if c, ok := a.Coords[dim]; ok && a.Has(dim) {
		return c, nil
	}
	if v, ok := a.Scalars[dim]; ok {
		return []float64{v}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDim, dim)
}

func (a *Array) strides() []int {
	s := make([]int, len(a.Dims))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= a.Data.Shape[i]
	}
	return s
}

// Sel selects position i along dim. The dim is dropped and its coordinate
// kept as a scalar.
func (a *Array) Sel(dim string, i int) (*Array, error) {
	ax, err := a.Axis(dim)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= a.Data.Shape[ax] {
		return nil, fmt.Errorf("%w: index %d out of range for dim %q of size %d", tensor.ErrShape, i, dim, a.Data.Shape[ax])
	}
	shape := slices.Delete(slices.Clone(a.Data.Shape), ax, ax+1)
	out := tensor.New(shape...)
	st := a.strides()
	outer := 1
	for _, d := range a.Data.Shape[:ax] {
		outer *= d
	}
	inner := st[ax]
	for o := 0; o < outer; o++ {
		src := o*a.Data.Shape[ax]*inner + i*inner
		copy(out.Data[o*inner:(o+1)*inner], a.Data.Data[src:src+inner])
	}

	res := &Array{
		Name:    a.Name,
		Dims:    slices.Delete(slices.Clone(a.Dims), ax, ax+1),
		Coords:  make(map[string][]float64, len(a.Dims)-1),
		Scalars: make(map[string]float64, len(a.Scalars)+1),
		Data:    out,
	}
	for _, d := range res.Dims {
		res.Coords[d] = a.Coords[d]
	}
	for k, v := range a.Scalars {
		res.Scalars[k] = v
	}
	res.Scalars[dim] = a.Coords[dim][i]
	return res, nil
}

// Mean averages over the given dims. Reduced dims are dropped.
func (a *Array) Mean(dims ...string) (*Array, error) {
	if len(dims) == 0 {
		return a, nil
	}
	reduce := make([]bool, len(a.Dims))
	for _, d := range dims {
		ax, err := a.Axis(d)
		if err != nil {
			return nil, err
		}
		reduce[ax] = true
	}

	var keptDims []string
	var keptShape []int
	count := 1
	for i, d := range a.Dims {
		if reduce[i] {
			count *= a.Data.Shape[i]
			continue
		}
		keptDims = append(keptDims, d)
		keptShape = append(keptShape, a.Data.Shape[i])
	}
	out := tensor.New(keptShape...)

	idx := make([]int, len(a.Dims))
	for flat := range a.Data.Data {
		rem := flat
		for i := len(idx) - 1; i >= 0; i-- {
			idx[i] = rem % a.Data.Shape[i]
			rem /= a.Data.Shape[i]
		}
		o := 0
		for i, x := range idx {
			if !reduce[i] {
				o = o*a.Data.Shape[i] + x
			}
		}
		out.Data[o] += a.Data.Data[flat]
	}
	if count > 0 {
		for i := range out.Data {
			out.Data[i] /= float64(count)
		}
	}

	res := &Array{
		Name:    a.Name,
		Dims:    keptDims,
		Coords:  make(map[string][]float64, len(keptDims)),
		Scalars: make(map[string]float64, len(a.Scalars)),
		Data:    out,
	}
	for _, d := range keptDims {
		res.Coords[d] = a.Coords[d]
	}
	for k, v := range a.Scalars {
		res.Scalars[k] = v
	}
	return res, nil
}

// Min is the smallest value.
func (a *Array) Min() float64 { return a.Data.Min() }

// Max is the largest value.
func (a *Array) Max() float64 { return a.Data.Max() }

// Values2D returns a 2-D array's values as [rowDim, colDim], transposing if
// the dims are stored the other way round.
func (a *Array) Values2D(rowDim, colDim string) (*tensor.Array, error) {
	if len(a.Dims) != 2 {
		return nil, fmt.Errorf("%w: want 2 dims, have %v", tensor.ErrShape, a.Dims)
	}
	r, err := a.Axis(rowDim)
	if err != nil {
		return nil, err
	}
	if _, err := a.Axis(colDim); err != nil {
		return nil, err
	}
	if r == 0 {
		return a.Data.Clone(), nil
	}
	h, w := a.Data.Shape[1], a.Data.Shape[0]
	out := tensor.New(h, w)
	for i := 0; i < h; i++ {
		for j := 0; j < w; j++ {
			out.Data[i*w+j] = a.Data.Data[j*h+i]
		}
	}
	return out, nil
}
