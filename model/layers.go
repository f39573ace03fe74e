package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Noofbiz/sensorviz/tensor"
)

// Conv2D is a 3x3 (or 1x1) convolution over [B, C, H, W] arrays with zero
// padding. Up doubles the spatial size by nearest-neighbour repetition
// before convolving; Stride 2 halves it.
type Conv2D struct {
	In, Out int
	Kernel  int
	Stride  int
	Up      bool

	// Weights is [Out][In][Kernel*Kernel], Bias is [Out].
	Weights [][][]float64
	Bias    []float64
}

// newConv2D allocates a convolution with Xavier-uniform weights.
func newConv2D(rng *rand.Rand, in, out, kernel, stride int, up bool) *Conv2D {
	c := &Conv2D{In: in, Out: out, Kernel: kernel, Stride: stride, Up: up}
	fanIn := in * kernel * kernel
	fanOut := out * kernel * kernel
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))
	c.Weights = make([][][]float64, out)
	for o := range c.Weights {
		c.Weights[o] = make([][]float64, in)
		for i := range c.Weights[o] {
			k := make([]float64, kernel*kernel)
			for j := range k {
				k[j] = (rng.Float64()*2.0 - 1.0) * limit
			}
			c.Weights[o][i] = k
		}
	}
	c.Bias = make([]float64, out)
	return c
}

// Forward applies the convolution.
func (c *Conv2D) Forward(x *tensor.Array) (*tensor.Array, error) {
	if x.Rank() != 4 || x.Shape[1] != c.In {
		return nil, fmt.Errorf("%w: conv expects [B, %d, H, W], got %v", tensor.ErrShape, c.In, x.Shape)
	}
	if c.Up {
		x = upsample2(x)
	}
	b, h, w := x.Shape[0], x.Shape[2], x.Shape[3]
	stride := max(c.Stride, 1)
	oh := (h + stride - 1) / stride
	ow := (w + stride - 1) / stride
	out := tensor.New(b, c.Out, oh, ow)
	pad := c.Kernel / 2
	plane := h * w
	for n := 0; n < b; n++ {
		for o := 0; o < c.Out; o++ {
			dst := out.Data[(n*c.Out+o)*oh*ow : (n*c.Out+o+1)*oh*ow]
			for r := 0; r < oh; r++ {
				for q := 0; q < ow; q++ {
					sum := c.Bias[o]
					for i := 0; i < c.In; i++ {
						src := x.Data[(n*c.In+i)*plane : (n*c.In+i+1)*plane]
						k := c.Weights[o][i]
						for kr := 0; kr < c.Kernel; kr++ {
							yr := r*stride + kr - pad
							if yr < 0 || yr >= h {
								continue
							}
							for kc := 0; kc < c.Kernel; kc++ {
								xc := q*stride + kc - pad
								if xc < 0 || xc >= w {
									continue
								}
								sum += k[kr*c.Kernel+kc] * src[yr*w+xc]
							}
						}
					}
					dst[r*ow+q] = sum
				}
			}
		}
	}
	return out, nil
}

func upsample2(x *tensor.Array) *tensor.Array {
	b, ch, h, w := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	out := tensor.New(b, ch, 2*h, 2*w)
	for p := 0; p < b*ch; p++ {
		src := x.Data[p*h*w : (p+1)*h*w]
		dst := out.Data[p*4*h*w : (p+1)*4*h*w]
		for r := 0; r < 2*h; r++ {
			for q := 0; q < 2*w; q++ {
				dst[r*2*w+q] = src[(r/2)*w+q/2]
			}
		}
	}
	return out
}

// ReLU is the elementwise rectifier.
var ReLU = LayerFunc[*tensor.Array](func(x *tensor.Array) (*tensor.Array, error) {
	out := x.Clone()
	for i, v := range out.Data {
		if v < 0 {
			out.Data[i] = 0
		}
	}
	return out, nil
})
