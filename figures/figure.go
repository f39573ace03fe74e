// Package figures draws the diagnostic figures of a convolutional neural
// process used for sensor placement: context encodings, off-grid context
// overlays, receptive fields, feature maps, placements and acquisition
// function surfaces.
//
// Every renderer is a plain function. It takes its whole input, builds a
// Figure of gonum/plot plots and returns it; nothing is written to disk until
// the caller asks for it with Figure.Save or Figure.WriteTo.
package figures

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	// ErrIndexOutOfRange is returned for batch, set or channel indices that
	// do not exist.
	ErrIndexOutOfRange = errors.New("figures: index out of range")
	// ErrChannelMismatch is returned when an encoding's channel count does
	// not match the loader metadata.
	ErrChannelMismatch = errors.New("figures: encoding channels do not match context sets")
	// ErrMultiVariableSet is returned when a single-variable set is needed.
	ErrMultiVariableSet = errors.New("figures: context set has more than one variable")
	// ErrGriddedSet is returned when an off-grid set is needed.
	ErrGriddedSet = errors.New("figures: context set is gridded")
	// ErrUnsupportedDim is returned for acquisition dims that can be neither
	// plotted nor averaged.
	ErrUnsupportedDim = errors.New("figures: unsupported dimension")
	// ErrIterationCount is returned when a non-iteration column dim is used
	// with an array holding more than one placement iteration.
	ErrIterationCount = errors.New("figures: expected a single iteration")
	// ErrIterationValue is returned when placements are to be selected up
	// to an iteration that is not a whole number.
	ErrIterationValue = errors.New("figures: iteration is not a whole number")
)

// Axes is one panel of a Figure.
type Axes struct {
	Plot *plot.Plot

	// Projection is set on map axes; data are given in (x2, x1) raw
	// coordinates, i.e. (lon, lat), and projected before drawing.
	Projection *Projection

	// Hidden axes keep their cell but draw nothing.
	Hidden bool

	// Colorbar, when set, is drawn to the right of the plot.
	Colorbar *Colorbar

	// extent is the projected [xmin, xmax, ymin, ymax] a map axes is held
	// to.
	extent *[4]float64
}

// Colorbar is a color scale drawn next to an Axes or docked on a Figure.
type Colorbar struct {
	Map   palette.ColorMap
	Label string

	// TickFormat is a printf verb for tick labels, e.g. "%.2f".
	TickFormat string

	// Rect places a docked colorbar as [left, bottom, width, height]
	// fractions of the figure.
	Rect [4]float64
}

// Figure is a rows x cols grid of axes.
type Figure struct {
	Rows, Cols int

	// Width and Height of the whole figure.
	Width, Height vg.Length

	// DPI for raster output. Zero uses the gonum default.
	DPI float64

	// Title is drawn centred above the grid.
	Title     string
	TitleSize vg.Length
	// Top is the fraction of the height left to the grid when a title is
	// set. Default 0.9.
	Top float64

	// Axes in row-major order. Removed axes are nil.
	Axes []*Axes

	// Colorbar is a colorbar shared by all axes, docked at Colorbar.Rect.
	Colorbar *Colorbar
}

// NewFigure creates a figure with rows x cols empty axes. size is the side
// of one cell in inches.
func NewFigure(rows, cols int, size float64) *Figure {
	f := &Figure{
		Rows:   rows,
		Cols:   cols,
		Width:  vg.Length(float64(cols)*size) * vg.Inch,
		Height: vg.Length(float64(rows)*size) * vg.Inch,
		Axes:   make([]*Axes, rows*cols),
	}
	for i := range f.Axes {
		f.Axes[i] = &Axes{Plot: plot.New()}
	}
	return f
}

// At returns the axes at row r, column c, or nil if removed.
func (f *Figure) At(r, c int) *Axes {
	if r < 0 || r >= f.Rows || c < 0 || c >= f.Cols {
		return nil
	}
	return f.Axes[r*f.Cols+c]
}

// Flat returns the axes that were not removed, in row-major order.
func (f *Figure) Flat() []*Axes {
	out := make([]*Axes, 0, len(f.Axes))
	for _, ax := range f.Axes {
		if ax != nil {
			out = append(out, ax)
		}
	}
	return out
}

// Visible counts axes that are neither removed nor hidden.
func (f *Figure) Visible() int {
	n := 0
	for _, ax := range f.Axes {
		if ax != nil && !ax.Hidden {
			n++
		}
	}
	return n
}

// Remove drops axes i (row-major) from the figure.
func (f *Figure) Remove(i int) {
	if i >= 0 && i < len(f.Axes) {
		f.Axes[i] = nil
	}
}

func width(c draw.Canvas) vg.Length  { return c.Max.X - c.Min.X }
func height(c draw.Canvas) vg.Length { return c.Max.Y - c.Min.Y }

// Draw renders the figure onto dc.
func (f *Figure) Draw(dc draw.Canvas) {
	w, h := width(dc), height(dc)
	grid := dc

	if f.Title != "" {
		sty := titleStyle(f.TitleSize)
		top := f.Top
		if top <= 0 || top >= 1 {
			top = 0.9
		}
		dc.FillText(sty, vg.Point{X: dc.Min.X + w/2, Y: dc.Max.Y - h*vg.Length(1-top)/2}, f.Title)
		grid = draw.Crop(grid, 0, 0, 0, -h*vg.Length(1-top))
	}
	if f.Colorbar != nil {
		grid = draw.Crop(grid, 0, -w*0.08, 0, 0)
		r := f.Colorbar.Rect
		bar := draw.Crop(dc,
			w*vg.Length(r[0]), -w*vg.Length(1-r[0]-r[2]),
			h*vg.Length(r[1]), -h*vg.Length(1-r[1]-r[3]))
		f.Colorbar.draw(bar)
	}

	tiles := draw.Tiles{
		Rows: f.Rows, Cols: f.Cols,
		PadX: vg.Millimeter * 2, PadY: vg.Millimeter * 2,
		PadTop: vg.Millimeter, PadBottom: vg.Millimeter,
		PadLeft: vg.Millimeter, PadRight: vg.Millimeter,
	}
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			ax := f.Axes[r*f.Cols+c]
			if ax == nil || ax.Hidden {
				continue
			}
			cell := tiles.At(grid, c, r)
			if ax.Colorbar != nil {
				cw := width(cell)
				ax.Colorbar.draw(draw.Crop(cell, cw*0.8, 0, 0, 0))
				cell = draw.Crop(cell, 0, -cw*0.22, 0, 0)
			}
			ax.holdExtent()
			ax.Plot.Draw(cell)
		}
	}
}

func titleStyle(size vg.Length) text.Style {
	sty := plot.New().Title.TextStyle
	if size > 0 {
		sty.Font.Size = size
	}
	sty.XAlign = text.XCenter
	sty.YAlign = text.YCenter
	return sty
}

func (cb *Colorbar) draw(c draw.Canvas) {
	if cb.Map.Min() == cb.Map.Max() {
		return
	}
	p := plot.New()
	p.HideX()
	p.Y.Label.Text = cb.Label
	if cb.TickFormat != "" {
		p.Y.Tick.Marker = formattedTicks{format: cb.TickFormat}
	}
	p.Add(&plotter.ColorBar{ColorMap: cb.Map, Vertical: true})
	p.Draw(c)
}

// formattedTicks relabels the default ticks with a printf format.
type formattedTicks struct {
	format string
}

func (t formattedTicks) Ticks(lo, hi float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lo, hi)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = fmt.Sprintf(t.format, ticks[i].Value)
		}
	}
	return ticks
}

// WriteTo renders the figure in format (png, jpg, svg, pdf, eps, tif).
func (f *Figure) WriteTo(w io.Writer, format string) (int64, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	var cw vg.CanvasWriterTo
	if f.DPI > 0 && (format == "png" || format == "jpg" || format == "jpeg" || format == "tif" || format == "tiff") {
		img := vgimg.NewWith(vgimg.UseWH(f.Width, f.Height), vgimg.UseDPI(int(f.DPI)))
		switch format {
		case "png":
			cw = vgimg.PngCanvas{Canvas: img}
		case "jpg", "jpeg":
			cw = vgimg.JpegCanvas{Canvas: img}
		default:
			cw = vgimg.TiffCanvas{Canvas: img}
		}
	} else {
		var err error
		if cw, err = draw.NewFormattedCanvas(f.Width, f.Height, format); err != nil {
			return 0, err
		}
	}
	f.Draw(draw.New(cw))
	return cw.WriteTo(w)
}

// Save writes the figure to path, picking the format from the extension.
func (f *Figure) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(file, filepath.Ext(path)); err != nil {
		file.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return file.Close()
}

// hideTicks removes tick marks and labels but keeps the axis labels.
func hideTicks(p *plot.Plot) {
	p.X.Tick.Marker = plot.ConstantTicks(nil)
	p.Y.Tick.Marker = plot.ConstantTicks(nil)
}
