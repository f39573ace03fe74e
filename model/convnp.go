package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/Noofbiz/sensorviz/task"
	"github.com/Noofbiz/sensorviz/tensor"
)

// Config holds the architecture of the reference ConvNP.
type Config struct {
	// GridSize is the side of the square internal grid. It must be
	// divisible by 2^len(Channels). Default 32.
	GridSize int

	// Channels is the channel count at each U-Net level. Default [8, 16].
	Channels []int

	// LengthScale of the SetConv Gaussian kernel in normalised units.
	// Default 2/GridSize.
	LengthScale float64

	// OutChannels of the final projection. Default 2 (mean, std).
	OutChannels int

	// Seed for weight initialisation. Zero means time-based.
	Seed int64
}

// ConvNP is a small convolutional neural process: a SetConv encoder that
// places context sets on a grid followed by a U-Net decoder. It exists so
// the feature-map and encoding figures can be drawn without an external
// deep-learning runtime.
type ConvNP struct {
	Config Config

	contextDims []int
	before      []Layer[*tensor.Array]
	after       []Layer[*tensor.Array]
	acts        []Layer[*tensor.Array]
	final       Layer[*tensor.Array]
}

// NewConvNP builds a ConvNP for context sets with the given numbers of
// variables.
func NewConvNP(cfg Config, contextDims []int) (*ConvNP, error) {
	if len(contextDims) == 0 {
		return nil, errors.New("at least one context set is required")
	}
	if cfg.GridSize == 0 {
		cfg.GridSize = 32
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = []int{8, 16}
	}
	if cfg.LengthScale == 0 {
		cfg.LengthScale = 2.0 / float64(cfg.GridSize)
	}
	if cfg.OutChannels == 0 {
		cfg.OutChannels = 2
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if div := 1 << len(cfg.Channels); cfg.GridSize%div != 0 {
		return nil, fmt.Errorf("grid size %d is not divisible by %d", cfg.GridSize, div)
	}

	in := 0
	for _, d := range contextDims {
		in += d + 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	m := &ConvNP{Config: cfg, contextDims: append([]int(nil), contextDims...)}
	ch := cfg.Channels
	L := len(ch)
	for i := 0; i < L; i++ {
		cin := in
		if i > 0 {
			cin = ch[i-1]
		}
		m.before = append(m.before, newConv2D(rng, cin, ch[i], 3, 2, false))
		m.acts = append(m.acts, ReLU)
	}
	m.after = make([]Layer[*tensor.Array], L)
	for i := L - 1; i >= 0; i-- {
		cin := 2 * ch[i]
		if i == L-1 {
			cin = ch[i]
		}
		cout := ch[0]
		if i > 0 {
			cout = ch[i-1]
		}
		m.after[i] = newConv2D(rng, cin, cout, 3, 1, true)
	}
	m.final = newConv2D(rng, ch[0], cfg.OutChannels, 1, 1, false)
	return m, nil
}

// BeforeTurnLayers are the stride-2 convolutions of the down path.
func (m *ConvNP) BeforeTurnLayers() []Layer[*tensor.Array] { return m.before }

// AfterTurnLayers are the upsampling convolutions, indexed by level.
func (m *ConvNP) AfterTurnLayers() []Layer[*tensor.Array] { return m.after }

// Activations pair with the layers of each level.
func (m *ConvNP) Activations() []Layer[*tensor.Array] { return m.acts }

// FinalLinear is the 1x1 output projection.
func (m *ConvNP) FinalLinear() Layer[*tensor.Array] { return m.final }

// Decoder returns the model itself; it is its own U-Net.
func (m *ConvNP) Decoder() UNet[*tensor.Array] { return m }

// Backend returns the array backend.
func (m *ConvNP) Backend() Backend[*tensor.Array] { return ArrayBackend{} }

// EncodingTensor runs the SetConv encoder: for each context set one density
// channel followed by one density-normalised channel per variable, on a
// GridSize x GridSize grid over the unit square. Row r holds x1 = r/(G-1),
// so x1 grows from the top row down.
func (m *ConvNP) EncodingTensor(t *task.Task) (*tensor.Array, error) {
	if len(t.XC) != len(m.contextDims) {
		return nil, fmt.Errorf("model built for %d context sets, task has %d", len(m.contextDims), len(t.XC))
	}
	g := m.Config.GridSize
	channels := 0
	for _, d := range m.contextDims {
		channels += d + 1
	}
	enc := tensor.New(1, channels, g, g)
	plane := g * g
	ls2 := 2 * m.Config.LengthScale * m.Config.LengthScale

	ch := 0
	for s := range t.XC {
		x1, x2, y, err := observations(t.XC[s], t.YC[s])
		if err != nil {
			return nil, fmt.Errorf("context set %d: %w", s, err)
		}
		dim := m.contextDims[s]
		if len(y) != dim {
			return nil, fmt.Errorf("context set %d: %d variables, model expects %d", s, len(y), dim)
		}
		density := enc.Data[ch*plane : (ch+1)*plane]
		for r := 0; r < g; r++ {
			gx1 := float64(r) / float64(g-1)
			for c := 0; c < g; c++ {
				gx2 := float64(c) / float64(g-1)
				var dens float64
				vals := make([]float64, dim)
				for n := range x1 {
					d1, d2 := gx1-x1[n], gx2-x2[n]
					k := math.Exp(-(d1*d1 + d2*d2) / ls2)
					dens += k
					for v := 0; v < dim; v++ {
						vals[v] += k * y[v][n]
					}
				}
				density[r*g+c] = dens
				for v := 0; v < dim; v++ {
					enc.Data[(ch+1+v)*plane+r*g+c] = vals[v] / (dens + 1e-8)
				}
			}
		}
		ch += dim + 1
	}
	return enc, nil
}

// observations flattens a context set into coordinate vectors and one value
// vector per variable. Gridded sets contribute one observation per grid
// point.
func observations(xs, ys task.Set) (x1, x2 []float64, y [][]float64, err error) {
	if ys.Dense == nil {
		return nil, nil, nil, errors.New("set has no values")
	}
	vals := ys.Dense
	if xs.Gridded() {
		gx1, gx2 := xs.Grid.X1, xs.Grid.X2
		if vals.Rank() == 4 {
			if vals, err = vals.Index(0); err != nil {
				return nil, nil, nil, err
			}
		}
		if vals.Rank() != 3 || vals.Shape[1] != len(gx1) || vals.Shape[2] != len(gx2) {
			return nil, nil, nil, fmt.Errorf("%w: gridded values %v for a %dx%d grid", tensor.ErrShape, vals.Shape, len(gx1), len(gx2))
		}
		for _, a := range gx1 {
			for _, b := range gx2 {
				x1 = append(x1, a)
				x2 = append(x2, b)
			}
		}
		n := len(gx1) * len(gx2)
		for v := 0; v < vals.Shape[0]; v++ {
			y = append(y, vals.Data[v*n:(v+1)*n])
		}
		return x1, x2, y, nil
	}

	coords, err := task.ScatterCoords(xs)
	if err != nil {
		return nil, nil, nil, err
	}
	if vals.Rank() == 3 {
		if vals, err = vals.Index(0); err != nil {
			return nil, nil, nil, err
		}
	}
	n := coords.Shape[1]
	if vals.Rank() != 2 || vals.Shape[1] != n {
		return nil, nil, nil, fmt.Errorf("%w: values %v for %d observations", tensor.ErrShape, vals.Shape, n)
	}
	for v := 0; v < vals.Shape[0]; v++ {
		y = append(y, vals.Data[v*n:(v+1)*n])
	}
	return coords.Data[:n], coords.Data[n:], y, nil
}

// ObserveLayers runs the decoder on x and reports every intermediate output
// in the order ReplayUNet would produce them.
func (m *ConvNP) ObserveLayers(x *tensor.Array, fn func(layer int, out *tensor.Array)) error {
	_, err := m.forward(x, fn)
	return err
}

func (m *ConvNP) forward(x *tensor.Array, fn func(int, *tensor.Array)) (*tensor.Array, error) {
	layer := 0
	emit := func(out *tensor.Array) {
		if fn != nil {
			fn(layer, out)
		}
		layer++
	}
	step := func(l Layer[*tensor.Array], act Layer[*tensor.Array], in *tensor.Array) (*tensor.Array, error) {
		h, err := l.Forward(in)
		if err != nil {
			return nil, err
		}
		return act.Forward(h)
	}

	skips := make([]*tensor.Array, len(m.before))
	h := x
	for i := range m.before {
		var err error
		if h, err = step(m.before[i], m.acts[i], h); err != nil {
			return nil, fmt.Errorf("down layer %d: %w", i, err)
		}
		skips[i] = h
		emit(h)
	}
	for i := len(m.after) - 1; i >= 0; i-- {
		in := h
		if i < len(m.after)-1 {
			var err error
			if in, err = tensor.Concat(skips[i], h, 1); err != nil {
				return nil, fmt.Errorf("up layer %d: %w", i, err)
			}
		}
		var err error
		if h, err = step(m.after[i], m.acts[i], in); err != nil {
			return nil, fmt.Errorf("up layer %d: %w", i, err)
		}
		emit(h)
	}
	out, err := m.final.Forward(h)
	if err != nil {
		return nil, fmt.Errorf("final linear: %w", err)
	}
	emit(out)
	return out, nil
}
