package model

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/sensorviz/task"
	"github.com/Noofbiz/sensorviz/tensor"
)

// GomlxModel presents a ConvNP with gomlx tensors at every boundary, the
// way a model trained with gomlx hands out its activations. It does not
// report its own layers, so feature maps are replayed through its decoder.
type GomlxModel struct {
	Net *ConvNP
}

// EncodingTensor implements Encoder.
func (g GomlxModel) EncodingTensor(t *task.Task) (*tensors.Tensor, error) {
	enc, err := g.Net.EncodingTensor(t)
	if err != nil {
		return nil, err
	}
	return enc.ToGomlx(), nil
}

// Decoder implements FeatureModel.
func (g GomlxModel) Decoder() UNet[*tensors.Tensor] { return gomlxUNet{g.Net} }

// Backend implements FeatureModel.
func (g GomlxModel) Backend() Backend[*tensors.Tensor] { return gomlxBackend{} }

type gomlxLayer struct{ l Layer[*tensor.Array] }

func (g gomlxLayer) Forward(x *tensors.Tensor) (*tensors.Tensor, error) {
	a, err := tensor.FromGomlx(x)
	if err != nil {
		return nil, err
	}
	out, err := g.l.Forward(a)
	if err != nil {
		return nil, err
	}
	return out.ToGomlx(), nil
}

func wrapLayers(ls []Layer[*tensor.Array]) []Layer[*tensors.Tensor] {
	out := make([]Layer[*tensors.Tensor], len(ls))
	for i, l := range ls {
		out[i] = gomlxLayer{l}
	}
	return out
}

type gomlxUNet struct{ net *ConvNP }

func (u gomlxUNet) BeforeTurnLayers() []Layer[*tensors.Tensor] { return wrapLayers(u.net.before) }
func (u gomlxUNet) AfterTurnLayers() []Layer[*tensors.Tensor]  { return wrapLayers(u.net.after) }
func (u gomlxUNet) Activations() []Layer[*tensors.Tensor]      { return wrapLayers(u.net.acts) }
func (u gomlxUNet) FinalLinear() Layer[*tensors.Tensor]        { return gomlxLayer{u.net.final} }

type gomlxBackend struct{}

func (gomlxBackend) Concat(a, b *tensors.Tensor, axis int) (*tensors.Tensor, error) {
	x, err := tensor.FromGomlx(a)
	if err != nil {
		return nil, err
	}
	y, err := tensor.FromGomlx(b)
	if err != nil {
		return nil, err
	}
	out, err := tensor.Concat(x, y, axis)
	if err != nil {
		return nil, err
	}
	return out.ToGomlx(), nil
}
