package figures

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Noofbiz/sensorviz/tensor"
)

// image is a 2-D array viewed as a plotter.GridXYZ with pixel centres at
// integer coordinates. Row 0 is at the bottom, like imshow with
// origin="lower".
type image struct {
	rows, cols int
	data       []float64
}

func newImage(a *tensor.Array) (image, error) {
	if a.Rank() != 2 {
		return image{}, fmt.Errorf("%w: image must be 2-D, got %v", tensor.ErrShape, a.Shape)
	}
	return image{rows: a.Shape[0], cols: a.Shape[1], data: a.Data}, nil
}

func (g image) Dims() (c, r int)   { return g.cols, g.rows }
func (g image) Z(c, r int) float64 { return g.data[r*g.cols+c] }
func (g image) X(c int) float64    { return float64(c) }
func (g image) Y(r int) float64    { return float64(r) }

func (g image) span() (float64, float64) {
	a := &tensor.Array{Data: g.data}
	return a.Min(), a.Max()
}

// imshow draws a onto ax with cmap scaled to [lo, hi]. A nil clim
// autoscales to the data. The returned colormap carries the scale for a
// colorbar.
func imshow(ax *Axes, a *tensor.Array, cmap string, clim *[2]float64) (*ListedColorMap, error) {
	img, err := newImage(a)
	if err != nil {
		return nil, err
	}
	lo, hi := img.span()
	if clim != nil {
		lo, hi = clim[0], clim[1]
	}
	cm, err := scaledColormap(cmap, lo, hi)
	if err != nil {
		return nil, err
	}
	h := plotter.NewHeatMap(img, cm.Palette(255))
	h.Min, h.Max = cm.Min(), cm.Max()
	// Clamp like imshow.
	h.Underflow, _ = cm.At(cm.Min())
	h.Overflow, _ = cm.At(cm.Max())
	ax.Plot.Add(h)
	return cm, nil
}

// contour draws the level-0.5 isoline of a in black, e.g. a land mask.
func contour(ax *Axes, a *tensor.Array, level float64) error {
	img, err := newImage(a)
	if err != nil {
		return err
	}
	c := plotter.NewContour(img, []float64{level}, blackPalette{})
	c.LineStyles = []draw.LineStyle{{Color: color.Black, Width: vg.Points(1)}}
	ax.Plot.Add(c)
	return nil
}

type blackPalette struct{}

func (blackPalette) Colors() []color.Color { return []color.Color{color.Black} }
