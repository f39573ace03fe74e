package figures

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/Noofbiz/sensorviz/labeled"
	"github.com/Noofbiz/sensorviz/processor"
	"github.com/Noofbiz/sensorviz/task"
)

// averageDims are the dims an acquisition array may be averaged over
// before plotting.
var averageDims = []string{"time", "sample"}

// AcquisitionOptions configures AcquisitionFn.
type AcquisitionOptions struct {
	// ColumnDim is the dim spread across panels.
	ColumnDim string
	Colormap  string
	// Size is the side of one panel in inches.
	Size float64
	// Colorbar shares one color range across panels and docks a colorbar
	// on the right. Without it each panel autoscales.
	Colorbar bool
	MaxCols  int

	Map    MapOptions
	Logger *slog.Logger
}

// DefaultAcquisitionOptions spreads iterations over up to five columns.
func DefaultAcquisitionOptions() AcquisitionOptions {
	return AcquisitionOptions{
		ColumnDim: "iteration",
		Colormap:  "Greys_r",
		Size:      3,
		Colorbar:  true,
		MaxCols:   5,
	}
}

// AcquisitionLayout wraps n panels into rows of at most maxCols.
func AcquisitionLayout(n, maxCols int) (rows, cols int) {
	if n <= 0 {
		return 0, 0
	}
	if maxCols <= 0 {
		maxCols = n
	}
	cols = min(maxCols, n)
	rows = (n + cols - 1) / cols
	return rows, cols
}

// PrepareAcquisition checks the dims of acq against the column dim and the
// raw spatial dims, and averages over any time and sample dims. It returns
// the averaged array and the dims averaged over.
func PrepareAcquisition(acq *labeled.Array, colDim string, spatial [2]string) (*labeled.Array, []string, error) {
	plotDims := []string{colDim, spatial[0], spatial[1]}
	var avg []string
	for _, d := range acq.Dims {
		if slices.Contains(plotDims, d) {
			continue
		}
		if !slices.Contains(averageDims, d) {
			return nil, nil, fmt.Errorf("%w: cannot average over dim %q for plotting, must be one of %v; select a single value of %q first",
				ErrUnsupportedDim, d, averageDims, d)
		}
		avg = append(avg, d)
	}
	if len(avg) == 0 {
		return acq, nil, nil
	}
	out, err := acq.Mean(avg...)
	if err != nil {
		return nil, nil, err
	}
	return out, avg, nil
}

// AcquisitionFn draws an acquisition function surface per value of the
// column dim, with the placements proposed so far in red and the off-grid
// context on top.
func AcquisitionFn(t *task.Task, acq *labeled.Array, cands *task.Placements, proc *processor.DataProcessor, proj *Projection, opts AcquisitionOptions) (*Figure, error) {
	if opts.ColumnDim == "" {
		opts.ColumnDim = "iteration"
	}
	if opts.Colormap == "" {
		opts.Colormap = "Greys_r"
	}
	if opts.Size <= 0 {
		opts.Size = 3
	}
	if opts.MaxCols <= 0 {
		opts.MaxCols = 5
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	spatial := proc.RawSpatialCoordNames()

	acq, avg, err := PrepareAcquisition(acq, opts.ColumnDim, spatial)
	if err != nil {
		return nil, err
	}
	if len(avg) > 0 {
		logger.Info("averaging acquisition function over dims for plotting", "dims", avg)
	}
	colVals, err := acq.Coord(opts.ColumnDim)
	if err != nil {
		return nil, err
	}
	panels, err := acquisitionPanels(acq, opts.ColumnDim)
	if err != nil {
		return nil, err
	}

	rows, cols := AcquisitionLayout(len(colVals), opts.MaxCols)
	fig := NewFigure(rows, cols, opts.Size)

	var shared *[2]float64
	if opts.Colorbar {
		shared = &[2]float64{acq.Min(), acq.Max()}
	}
	x1, err := acq.Coord(spatial[0])
	if err != nil {
		return nil, err
	}
	x2, err := acq.Coord(spatial[1])
	if err != nil {
		return nil, err
	}

	var last *ListedColorMap
	for i, panel := range panels {
		ax := fig.Axes[i]
		if err := setupMap(ax, proj, opts.Map.Extent, opts.Map.Gridlines); err != nil {
			return nil, err
		}
		vals, err := panel.Values2D(spatial[0], spatial[1])
		if err != nil {
			return nil, err
		}
		lo, hi := vals.Min(), vals.Max()
		if shared != nil {
			lo, hi = shared[0], shared[1]
		}
		cm, err := scaledColormap(opts.Colormap, lo, hi)
		if err != nil {
			return nil, err
		}
		mesh, err := newProjectedMesh(vals.Data, x1, x2, cm, ax.Projection)
		if err != nil {
			return nil, err
		}
		ax.Plot.Add(mesh)
		last = cm

		colVal := colVals[i]
		ax.Plot.Title.Text = opts.ColumnDim + "=" + strconv.FormatFloat(colVal, 'g', -1, 64)
		ax.AddCoastlines(opts.Map.Coastlines)

		upTo := colVal
		if opts.ColumnDim != "iteration" {
			iters, err := panel.Coord("iteration")
			if err != nil || len(iters) != 1 {
				return nil, fmt.Errorf("%w: column dim %q with iteration coord %v", ErrIterationCount, opts.ColumnDim, iters)
			}
			upTo = iters[0]
		}
		if upTo != math.Trunc(upTo) {
			return nil, fmt.Errorf("%w: %g", ErrIterationValue, upTo)
		}
		if cands != nil {
			if err := addCandidates(ax, cands.UpTo(int(upTo)), opts.Map.Scatter); err != nil {
				return nil, err
			}
		}
	}
	if opts.Colorbar && last != nil {
		fig.Colorbar = &Colorbar{Map: last, Label: acq.Name, Rect: [4]float64{0.93, 0.035, 0.02, 0.91}}
	}

	overlay := DefaultOverlayOptions()
	overlay.Processor = proc
	if err := OffgridContext(fig.Axes[:len(panels)], t, overlay); err != nil {
		return nil, err
	}
	for i := len(panels); i < len(fig.Axes); i++ {
		fig.Remove(i)
	}
	for _, ax := range fig.Flat() {
		ax.holdExtent()
	}
	return fig, nil
}

// acquisitionPanels splits acq along colDim. A column dim held only as a
// scalar coordinate yields one panel.
func acquisitionPanels(acq *labeled.Array, colDim string) ([]*labeled.Array, error) {
	if !acq.Has(colDim) {
		return []*labeled.Array{acq}, nil
	}
	n := acq.Size(colDim)
	out := make([]*labeled.Array, n)
	for i := range out {
		var err error
		if out[i], err = acq.Sel(colDim, i); err != nil {
			return nil, err
		}
	}
	return out, nil
}
