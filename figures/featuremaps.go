package figures

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/sensorviz/model"
	"github.com/Noofbiz/sensorviz/task"
	"github.com/Noofbiz/sensorviz/tensor"
)

// FeatureMapOptions configures FeatureMaps.
type FeatureMapOptions struct {
	// PerLayer is the number of channels sampled from each layer.
	PerLayer int
	// Seed of the channel sampler. Zero means time-based.
	Seed int64
	// Size is the side of one panel in inches.
	Size     float64
	Colorbar bool
	Colormap string
	// Replay forces the hand-written U-Net replay even when the model can
	// report its own activations.
	Replay bool
}

// DefaultFeatureMapOptions samples 5 channels per layer in greyscale.
func DefaultFeatureMapOptions() FeatureMapOptions {
	return FeatureMapOptions{PerLayer: 5, Seed: 42, Size: 3, Colormap: "Greys"}
}

// FeatureMaps draws a random sample of the channels of every decoder layer
// for the encoding of t, one figure per layer.
func FeatureMaps[T any](m model.FeatureModel[T], t *task.Task, conv tensor.Converter[T], opts FeatureMapOptions) ([]*Figure, error) {
	x, err := m.EncodingTensor(t)
	if err != nil {
		return nil, fmt.Errorf("computing encoding: %w", err)
	}
	var outs []T
	if obs, ok := m.(model.LayerObserver[T]); ok && !opts.Replay {
		err = obs.ObserveLayers(x, func(_ int, out T) { outs = append(outs, out) })
	} else {
		outs, err = model.ReplayUNet(m.Decoder(), m.Backend(), x)
	}
	if err != nil {
		return nil, err
	}
	maps := make([]*tensor.Array, len(outs))
	for i, o := range outs {
		if maps[i], err = conv(o); err != nil {
			return nil, fmt.Errorf("converting layer %d: %w", i, err)
		}
	}
	return FeatureMapFigures(maps, opts)
}

// FeatureMapFigures draws already computed layer outputs of shape
// [batch, channel, row, col].
func FeatureMapFigures(maps []*tensor.Array, opts FeatureMapOptions) ([]*Figure, error) {
	if opts.PerLayer <= 0 {
		opts.PerLayer = 5
	}
	if opts.Size <= 0 {
		opts.Size = 3
	}
	if opts.Colormap == "" {
		opts.Colormap = "Greys"
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	fontSize := vg.Points(opts.Size * 15 / 4)

	figs := make([]*Figure, 0, len(maps))
	for l, fm := range maps {
		if fm.Rank() != 4 {
			return nil, fmt.Errorf("%w: layer %d output %v is not [batch, channel, row, col]", tensor.ErrShape, l, fm.Shape)
		}
		first, err := fm.Index(0)
		if err != nil {
			return nil, err
		}
		idx := SampleChannels(rng, fm.Shape[1], opts.PerLayer)

		fig := NewFigure(1, len(idx), opts.Size)
		fig.Title = fmt.Sprintf("Layer %d feature map. Shape: %s. Min=%.2f, Max=%.2f.",
			l, tensor.ShapeString(fm.Shape), fm.Min(), fm.Max())
		fig.TitleSize = fontSize
		fig.Top = 0.75
		for i, f := range idx {
			ch, err := first.Index(f)
			if err != nil {
				return nil, err
			}
			ax := fig.Axes[i]
			cm, err := imshow(ax, ch, opts.Colormap, nil)
			if err != nil {
				return nil, err
			}
			ax.Plot.Title.Text = fmt.Sprintf("Feature %d", f)
			ax.Plot.Title.TextStyle.Font.Size = fontSize
			hideTicks(ax.Plot)
			if opts.Colorbar {
				ax.Colorbar = &Colorbar{Map: cm, TickFormat: "%.2f"}
			}
		}
		figs = append(figs, fig)
	}
	return figs, nil
}

// SampleChannels draws min(k, n) distinct channel indices from [0, n).
func SampleChannels(rng *rand.Rand, n, k int) []int {
	k = min(k, n)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	// Partial Fisher-Yates.
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}
