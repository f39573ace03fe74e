package figures

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/sensorviz/processor"
)

// ReceptiveFieldBox is the raw-unit rectangle a receptive field of a given
// normalised size covers when centred on the data domain.
type ReceptiveFieldBox struct {
	// Width along x1 and x2 in raw units.
	X1Size, X2Size float64
	// Corner is the (x1, x2) of the lower-left corner.
	X1Corner, X2Corner float64
}

// NewReceptiveFieldBox sizes the box as rf times each axis' raw range.
func NewReceptiveFieldBox(rf float64, proc *processor.DataProcessor) ReceptiveFieldBox {
	x1, x2 := proc.X1(), proc.X2()
	b := ReceptiveFieldBox{X1Size: rf * x1.Range(), X2Size: rf * x2.Range()}
	b.X1Corner = (x1.Map[0]+x1.Map[1])/2 - b.X1Size/2
	b.X2Corner = (x2.Map[0]+x2.Map[1])/2 - b.X2Size/2
	return b
}

// ReceptiveField draws the receptive field as a translucent black box on a
// map of the data domain.
func ReceptiveField(rf float64, proc *processor.DataProcessor, proj *Projection, opts MapOptions) (*Figure, error) {
	size := opts.Size
	if size <= 0 {
		size = 6
	}
	extent := opts.Extent
	if extent == nil {
		extent = GlobalExtent()
	}
	fig := NewFigure(1, 1, size)
	ax := fig.Axes[0]
	if err := setupMap(ax, proj, extent, true); err != nil {
		return nil, err
	}

	box := NewReceptiveFieldBox(rf, proc)
	outline := densify2(
		[2]float64{box.X2Corner, box.X1Corner},
		[2]float64{box.X2Corner + box.X2Size, box.X1Corner + box.X1Size},
	)
	poly, err := plotter.NewPolygon(ax.projectXY(outline[0], outline[1]))
	if err != nil {
		return nil, err
	}
	poly.Color = color.NRGBA{A: 77}
	poly.LineStyle.Width = 0
	ax.Plot.Add(poly)
	ax.AddCoastlines(opts.Coastlines)
	ax.holdExtent()

	names := proc.RawSpatialCoordNames()
	ax.Plot.Title.Text = fmt.Sprintf("Receptive field in raw coords: %s=%.2f, %s=%.2f",
		names[0], box.X1Size, names[1], box.X2Size)
	ax.Plot.Title.TextStyle.Font.Size = vg.Points(10)
	return fig, nil
}

// densify2 traces the boundary of the (x2, x1) box from lo to hi with
// enough vertices to bend under a projection. It returns x2s and x1s.
func densify2(lo, hi [2]float64) [2][]float64 {
	const n = 16
	var x2, x1 []float64
	edge := func(a, b [2]float64) {
		for i := 0; i < n; i++ {
			f := float64(i) / n
			x2 = append(x2, a[0]+f*(b[0]-a[0]))
			x1 = append(x1, a[1]+f*(b[1]-a[1]))
		}
	}
	corners := [][2]float64{{lo[0], lo[1]}, {hi[0], lo[1]}, {hi[0], hi[1]}, {lo[0], hi[1]}}
	for i := range corners {
		edge(corners[i], corners[(i+1)%len(corners)])
	}
	return [2][]float64{x2, x1}
}
