package figures

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Noofbiz/sensorviz/processor"
	"github.com/Noofbiz/sensorviz/task"
)

// OverlayOptions configures OffgridContext.
type OverlayOptions struct {
	// Processor unnormalises coordinates when set.
	Processor *processor.DataProcessor
	// Metadata names the sets in legend labels when set.
	Metadata *task.Metadata
	// PlotTarget appends the target sets to the candidates.
	PlotTarget bool
	// Legend adds a legend to the first axes.
	Legend bool
	// Sets restricts which candidate indices are drawn. Nil draws all.
	Sets []int
	// Markers and Colors are cycled by set index.
	Markers string
	Colors  string
	Scatter ScatterStyle
}

// DefaultOverlayOptions draws every context set with a legend.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{Legend: true, Markers: "ovs^D", Colors: "kbrgy"}
}

// OffgridContext scatters the off-grid context (and optionally target)
// locations of t on every axes. Points are drawn at (x2, x1).
func OffgridContext(axes []*Axes, t *task.Task, opts OverlayOptions) error {
	if opts.Markers == "" {
		opts.Markers = "ovs^D"
	}
	if opts.Colors == "" {
		opts.Colors = "kbrgy"
	}
	sets := append([]task.Set(nil), t.XC...)
	if opts.PlotTarget {
		sets = append(sets, t.XT...)
	}
	var want map[int]bool
	if opts.Sets != nil {
		want = make(map[int]bool, len(opts.Sets))
		for _, s := range opts.Sets {
			want[s] = true
		}
	}

	var legend []legendEntry
	for i, s := range sets {
		if want != nil && !want[i] {
			continue
		}
		if s.Gridded() {
			continue
		}
		x, err := task.ScatterCoords(s)
		if err != nil {
			return fmt.Errorf("set %d: %w", i, err)
		}
		if opts.Processor != nil {
			if x, err = opts.Processor.MapCoordArray(x, true); err != nil {
				return fmt.Errorf("set %d: %w", i, err)
			}
		}
		n := x.Shape[1]
		x1, x2 := x.Data[:n], x.Data[n:]

		label := overlayLabel(i, len(t.XC), opts)
		sty := markerStyle(opts.Markers, opts.Colors, i, opts.Scatter.radius())
		for _, ax := range axes {
			if ax == nil {
				continue
			}
			sc, err := plotter.NewScatter(ax.projectXY(x2, x1))
			if err != nil {
				return fmt.Errorf("set %d: %w", i, err)
			}
			sc.GlyphStyle = sty
			ax.Plot.Add(sc)
			if label != "" && ax == firstAxes(axes) {
				legend = append(legend, legendEntry{label, sc})
			}
		}
	}
	if opts.Legend {
		if ax := firstAxes(axes); ax != nil {
			for _, e := range legend {
				ax.Plot.Legend.Add(e.label, e.thumb)
			}
			ax.Plot.Legend.Top = true
		}
	}
	return nil
}

type legendEntry struct {
	label string
	thumb *plotter.Scatter
}

func firstAxes(axes []*Axes) *Axes {
	for _, ax := range axes {
		if ax != nil {
			return ax
		}
	}
	return nil
}

// overlayLabel names candidate set i. Sets are labelled only when targets
// are drawn too.
func overlayLabel(i, numContext int, opts OverlayOptions) string {
	if !opts.PlotTarget {
		return ""
	}
	if i < numContext {
		label := fmt.Sprintf("Context set %d ", i)
		if opts.Metadata != nil && i < len(opts.Metadata.ContextVarIDs) {
			label += task.FormatIDs(opts.Metadata.ContextVarIDs[i])
		}
		return label
	}
	j := i - numContext
	label := fmt.Sprintf("Target set %d ", j)
	if opts.Metadata != nil && j < len(opts.Metadata.TargetVarIDs) {
		label += task.FormatIDs(opts.Metadata.TargetVarIDs[j])
	}
	return label
}

// ObservationOptions configures OffgridContextObservations.
type ObservationOptions struct {
	// Format is a printf verb for the values. Default "%g".
	Format string
	// Extent keeps points with x1min <= x1 <= x1max and
	// x2min <= x2 <= x2max, given as [x1min, x1max, x2min, x2max].
	Extent *[4]float64
	// Color of the text, a name or a single-letter code.
	Color string
}

// OffgridContextObservations writes the unnormalised value of every
// observation of a single-variable context set at its (x2, x1) location.
func OffgridContextObservations(axes []*Axes, t *task.Task, proc *processor.DataProcessor, meta *task.Metadata, set int, opts ObservationOptions) error {
	if set < 0 || set >= len(t.XC) || set >= len(t.YC) || set >= len(meta.ContextVarIDs) {
		return fmt.Errorf("%w: context set %d", ErrIndexOutOfRange, set)
	}
	ids := meta.ContextVarIDs[set]
	if len(ids) != 1 {
		return fmt.Errorf("%w: set %d has variables %s", ErrMultiVariableSet, set, task.FormatIDs(ids))
	}
	if t.XC[set].Gridded() {
		return fmt.Errorf("%w: context set %d", ErrGriddedSet, set)
	}
	x, err := task.ScatterCoords(t.XC[set])
	if err != nil {
		return err
	}
	if x, err = proc.MapCoordArray(x, true); err != nil {
		return err
	}
	y := t.YC[set].Dense
	if y == nil || y.Rank() != 2 || y.Shape[0] != 1 {
		return fmt.Errorf("%w: context set %d values must be (1, N)", ErrMultiVariableSet, set)
	}
	if y, err = proc.MapArray(y, ids[0], true); err != nil {
		return err
	}

	labels := observationLabels(x.Data, y.Data, opts)
	for _, ax := range axes {
		if ax == nil || len(labels.XYs) == 0 {
			continue
		}
		xys, kept := ax.projectKept(labels.x2, labels.x1)
		if len(kept) == 0 {
			continue
		}
		l := plotter.XYLabels{XYs: xys, Labels: make([]string, len(kept))}
		for i, k := range kept {
			l.Labels[i] = labels.Labels[k]
		}
		pl, err := plotter.NewLabels(l)
		if err != nil {
			return err
		}
		c := namedColor(opts.Color)
		for i := range pl.TextStyle {
			pl.TextStyle[i].Color = c
		}
		ax.Plot.Add(pl)
	}
	return nil
}

type observationText struct {
	plotter.XYLabels
	x1, x2 []float64
}

// observationLabels formats the values kept by the extent filter. coords
// is a flattened (2, N) array.
func observationLabels(coords, values []float64, opts ObservationOptions) observationText {
	format := opts.Format
	if format == "" {
		format = "%g"
	}
	n := len(values)
	var out observationText
	for i := 0; i < n; i++ {
		x1, x2 := coords[i], coords[n+i]
		if e := opts.Extent; e != nil && !(e[0] <= x1 && x1 <= e[1] && e[2] <= x2 && x2 <= e[3]) {
			continue
		}
		out.x1 = append(out.x1, x1)
		out.x2 = append(out.x2, x2)
		out.XYs = append(out.XYs, plotter.XY{X: x2, Y: x1})
		out.Labels = append(out.Labels, fmt.Sprintf(format, values[i]))
	}
	return out
}

// addCandidates scatters placement candidates in red at (x2, x1).
func addCandidates(ax *Axes, rows []task.Placement, sty ScatterStyle) error {
	if len(rows) == 0 {
		return nil
	}
	x1 := make([]float64, len(rows))
	x2 := make([]float64, len(rows))
	for i, r := range rows {
		x1[i], x2[i] = r.X1, r.X2
	}
	sc, err := plotter.NewScatter(ax.projectXY(x2, x1))
	if err != nil {
		return err
	}
	lw := sty.LineWidth
	if lw <= 0 {
		lw = vg.Points(0.5)
	}
	sc.GlyphStyle = draw.GlyphStyle{
		Color:  color.NRGBA{R: 255, A: 255},
		Radius: sty.radius(),
		Shape:  ringGlyph{width: lw},
	}
	ax.Plot.Add(sc)
	return nil
}

// ringGlyph is a filled circle with an outline of the given width.
type ringGlyph struct{ width vg.Length }

func (g ringGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	draw.CircleGlyph{}.DrawGlyph(c, sty, pt)
	c.SetLineStyle(draw.LineStyle{Color: sty.Color, Width: g.width})
	var p vg.Path
	p.Move(vg.Point{X: pt.X + sty.Radius, Y: pt.Y})
	p.Arc(pt, sty.Radius, 0, 2*math.Pi)
	p.Close()
	c.Stroke(p)
}
