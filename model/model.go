// Package model defines what the renderers need from a trained model and
// ships a small pure-Go convolutional neural process that satisfies it.
//
// T is the model's native tensor type. The renderers never operate on T
// themselves: they hand it to a tensor.Converter chosen by the caller.
package model

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/sensorviz/task"
	"github.com/Noofbiz/sensorviz/tensor"
)

// ErrDecoderStructure is returned when a decoder's layer lists cannot be
// paired up for a replay.
var ErrDecoderStructure = errors.New("model: decoder layer lists do not match")

// Layer is one step of a decoder: a convolution, an activation or a
// projection.
type Layer[T any] interface {
	Forward(x T) (T, error)
}

// LayerFunc adapts a function to Layer.
type LayerFunc[T any] func(T) (T, error)

// Forward calls f.
func (f LayerFunc[T]) Forward(x T) (T, error) { return f(x) }

// Encoder produces the gridded encoding of a task's context sets, laid out
// [batch, channel, row, col].
type Encoder[T any] interface {
	EncodingTensor(t *task.Task) (T, error)
}

// UNet exposes a U-shaped decoder. BeforeTurnLayers and Activations are
// paired on the way down; on the way up AfterTurnLayers and Activations are
// walked in reverse. All three lists have the same length.
type UNet[T any] interface {
	BeforeTurnLayers() []Layer[T]
	AfterTurnLayers() []Layer[T]
	Activations() []Layer[T]
	FinalLinear() Layer[T]
}

// Backend holds the tensor operations the replay needs.
type Backend[T any] interface {
	Concat(a, b T, axis int) (T, error)
}

// FeatureModel is a model whose decoder can be inspected.
type FeatureModel[T any] interface {
	Encoder[T]
	Decoder() UNet[T]
	Backend() Backend[T]
}

// LayerObserver is implemented by models that report each decoder layer's
// output as they compute it. Renderers prefer it over ReplayUNet because it
// cannot drift from the real forward pass.
type LayerObserver[T any] interface {
	ObserveLayers(x T, fn func(layer int, out T)) error
}

// ReplayUNet recomputes a U-Net forward pass layer by layer and returns every
// intermediate output: the down path, the turn, the up path and the final
// projection. It reproduces the construction of the ConvNP U-Net decoder; a
// decoder wired differently gets wrong feature maps, not an error.
func ReplayUNet[T any](u UNet[T], b Backend[T], x T) ([]T, error) {
	before, after, acts := u.BeforeTurnLayers(), u.AfterTurnLayers(), u.Activations()
	if len(before) == 0 || len(before) != len(acts) || len(after) != len(acts) {
		return nil, fmt.Errorf("%w: %d down layers, %d up layers, %d activations",
			ErrDecoderStructure, len(before), len(after), len(acts))
	}

	apply := func(layer, act Layer[T], in T) (T, error) {
		h, err := layer.Forward(in)
		if err != nil {
			return h, err
		}
		return act.Forward(h)
	}

	var maps []T
	hs := make([]T, 0, len(before))
	h := x
	for i := range before {
		var err error
		if h, err = apply(before[i], acts[i], h); err != nil {
			return nil, fmt.Errorf("down layer %d: %w", i, err)
		}
		hs = append(hs, h)
		maps = append(maps, h)
	}

	last := len(after) - 1
	h, err := apply(after[last], acts[last], hs[last])
	if err != nil {
		return nil, fmt.Errorf("turn layer: %w", err)
	}
	maps = append(maps, h)

	for i := last - 1; i >= 0; i-- {
		in, err := b.Concat(hs[i], h, 1)
		if err != nil {
			return nil, fmt.Errorf("up layer %d: %w", i, err)
		}
		if h, err = apply(after[i], acts[i], in); err != nil {
			return nil, fmt.Errorf("up layer %d: %w", i, err)
		}
		maps = append(maps, h)
	}

	if h, err = u.FinalLinear().Forward(h); err != nil {
		return nil, fmt.Errorf("final linear: %w", err)
	}
	return append(maps, h), nil
}

// ArrayBackend is the Backend for models working on *tensor.Array.
type ArrayBackend struct{}

// Concat joins along axis.
func (ArrayBackend) Concat(a, b *tensor.Array, axis int) (*tensor.Array, error) {
	return tensor.Concat(a, b, axis)
}
