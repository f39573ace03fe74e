package tensor

import (
	"fmt"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// FromGomlx copies a float32 or float64 gomlx tensor into an Array.
func FromGomlx(t *tensors.Tensor) (*Array, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil gomlx tensor", ErrShape)
	}
	dims := append([]int(nil), t.Shape().Dimensions...)
	var data []float64
	var convErr error
	t.ConstFlatData(func(flat any) {
		switch v := flat.(type) {
		case []float32:
			data = make([]float64, len(v))
			for i, x := range v {
				data[i] = float64(x)
			}
		case []float64:
			data = append([]float64(nil), v...)
		default:
			convErr = fmt.Errorf("%w: unsupported gomlx flat data %T", ErrShape, flat)
		}
	})
	if convErr != nil {
		return nil, convErr
	}
	return FromSlice(data, dims...)
}

// GomlxConverter is the Converter for models producing gomlx tensors.
var GomlxConverter Converter[*tensors.Tensor] = FromGomlx

// ToGomlx copies the array into a float32 gomlx tensor, the dtype the
// training code feeds its models with.
func (a *Array) ToGomlx() *tensors.Tensor {
	flat := make([]float32, len(a.Data))
	for i, v := range a.Data {
		flat[i] = float32(v)
	}
	return tensors.FromFlatDataAndDimensions(flat, a.Shape...)
}
