// Package processor maps between the raw units of the data (degrees,
// kelvin, ...) and the normalised units the model works in.
package processor

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/sensorviz/tensor"
)

// Normalisation methods for variables.
const (
	MethodMeanStd = "mean_std"
	MethodMinMax  = "min_max"
)

var (
	// ErrUnknownVariable is returned for variable IDs with no parameters.
	ErrUnknownVariable = errors.New("processor: unknown variable")
	// ErrParams is returned for unusable normalisation parameters.
	ErrParams = errors.New("processor: invalid parameters")
)

// CoordParams holds the raw-unit bounds of one coordinate axis. Normalised
// coordinates run from 0 at Map[0] to 1 at Map[1].
type CoordParams struct {
	Name string     `yaml:"name" mapstructure:"name"`
	Map  [2]float64 `yaml:"map" mapstructure:"map"`
}

// Range is Map[1] - Map[0].
func (c CoordParams) Range() float64 { return c.Map[1] - c.Map[0] }

// VarParams holds one variable's normalisation.
type VarParams struct {
	Method string  `yaml:"method" mapstructure:"method"`
	Mean   float64 `yaml:"mean" mapstructure:"mean"`
	Std    float64 `yaml:"std" mapstructure:"std"`
	Min    float64 `yaml:"min" mapstructure:"min"`
	Max    float64 `yaml:"max" mapstructure:"max"`
}

// Params is the serialisable state of a DataProcessor.
type Params struct {
	X1   CoordParams          `yaml:"x1"`
	X2   CoordParams          `yaml:"x2"`
	Vars map[string]VarParams `yaml:"vars"`
}

// DataProcessor unnormalises model-space coordinates and values for display.
type DataProcessor struct {
	params Params
}

// New validates params and builds a DataProcessor.
func New(params Params) (*DataProcessor, error) {
	for _, c := range []CoordParams{params.X1, params.X2} {
		if c.Range() == 0 {
			return nil, fmt.Errorf("%w: coordinate %q has an empty range %v", ErrParams, c.Name, c.Map)
		}
	}
	for id, v := range params.Vars {
		switch v.Method {
		case MethodMeanStd:
			if v.Std == 0 {
				return nil, fmt.Errorf("%w: variable %q has zero std", ErrParams, id)
			}
		case MethodMinMax:
			if v.Max == v.Min {
				return nil, fmt.Errorf("%w: variable %q has an empty range", ErrParams, id)
			}
		default:
			return nil, fmt.Errorf("%w: variable %q has unknown method %q", ErrParams, id, v.Method)
		}
	}
	return &DataProcessor{params: params}, nil
}

// X1 returns the bounds and name of the first coordinate axis.
func (d *DataProcessor) X1() CoordParams { return d.params.X1 }

// X2 returns the bounds and name of the second coordinate axis.
func (d *DataProcessor) X2() CoordParams { return d.params.X2 }

// RawSpatialCoordNames returns the raw names of x1 and x2, e.g. lat, lon.
func (d *DataProcessor) RawSpatialCoordNames() [2]string {
	return [2]string{d.params.X1.Name, d.params.X2.Name}
}

func mapCoord(c CoordParams, v float64, unnorm bool) float64 {
	if unnorm {
		return v*c.Range() + c.Map[0]
	}
	return (v - c.Map[0]) / c.Range()
}

// MapX1 maps x1 values between normalised and raw units.
func (d *DataProcessor) MapX1(x []float64, unnorm bool) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = mapCoord(d.params.X1, v, unnorm)
	}
	return out
}

// MapX2 maps x2 values between normalised and raw units.
func (d *DataProcessor) MapX2(x []float64, unnorm bool) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = mapCoord(d.params.X2, v, unnorm)
	}
	return out
}

// MapX1AndX2 maps both coordinate vectors.
func (d *DataProcessor) MapX1AndX2(x1, x2 []float64, unnorm bool) ([]float64, []float64) {
	return d.MapX1(x1, unnorm), d.MapX2(x2, unnorm)
}

// MapCoordArray maps a (2, N) coordinate array.
func (d *DataProcessor) MapCoordArray(x *tensor.Array, unnorm bool) (*tensor.Array, error) {
	if x.Rank() != 2 || x.Shape[0] != 2 {
		return nil, fmt.Errorf("%w: coordinate array must be (2, N), got %v", tensor.ErrShape, x.Shape)
	}
	n := x.Shape[1]
	x1, x2 := d.MapX1AndX2(x.Data[:n], x.Data[n:], unnorm)
	return tensor.FromSlice(append(x1, x2...), 2, n)
}

// MapArray maps every value of a with the normalisation of varID.
func (d *DataProcessor) MapArray(a *tensor.Array, varID string, unnorm bool) (*tensor.Array, error) {
	v, ok := d.params.Vars[varID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, varID)
	}
	out := a.Clone()
	for i, x := range out.Data {
		switch v.Method {
		case MethodMeanStd:
			if unnorm {
				out.Data[i] = x*v.Std + v.Mean
			} else {
				out.Data[i] = (x - v.Mean) / v.Std
			}
		case MethodMinMax:
			if unnorm {
				out.Data[i] = (x+1)/2*(v.Max-v.Min) + v.Min
			} else {
				out.Data[i] = (x-v.Min)/(v.Max-v.Min)*2 - 1
			}
		}
	}
	return out, nil
}
