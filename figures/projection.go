package figures

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Noofbiz/sensorviz/tensor"
)

// lonLat is the spatial reference raw coordinates are given in.
const lonLat = "+proj=longlat +datum=WGS84 +no_defs"

// Projection maps (lon, lat) in degrees to the plane of a map axes.
type Projection struct {
	Name string

	transform proj.Transformer // nil is the identity
}

// PlateCarree is the equirectangular projection: lon and lat are drawn as
// they are.
func PlateCarree() *Projection {
	return &Projection{Name: "PlateCarree"}
}

// NewProjection parses a proj4 definition, e.g.
// "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m".
func NewProjection(def string) (*Projection, error) {
	dst, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("figures: parsing projection %q: %w", def, err)
	}
	if dst.Name == "longlat" {
		return &Projection{Name: def}, nil
	}
	src, err := proj.Parse(lonLat)
	if err != nil {
		return nil, err
	}
	tr, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("figures: projection %q: %w", def, err)
	}
	return &Projection{Name: def, transform: tr}, nil
}

// Project maps one (lon, lat) point.
func (p *Projection) Project(lon, lat float64) (float64, float64, error) {
	if p == nil || p.transform == nil {
		return lon, lat, nil
	}
	return p.transform(lon, lat)
}

// ProjectLine maps a line string, e.g. a coastline.
func (p *Projection) ProjectLine(ls geom.LineString) (geom.LineString, error) {
	if p == nil || p.transform == nil {
		return ls, nil
	}
	g, err := ls.Transform(p.transform)
	if err != nil {
		return nil, err
	}
	return g.(geom.LineString), nil
}

// Extent bounds what a map axes shows. Bounds are in raw coordinates with
// X = x2 (lon) and Y = x1 (lat).
type Extent struct {
	Global bool
	Bounds *geom.Bounds
}

// GlobalExtent shows the whole globe.
func GlobalExtent() *Extent { return &Extent{Global: true} }

// BoundsExtent shows [x2min, x2max] x [x1min, x1max].
func BoundsExtent(x2min, x2max, x1min, x1max float64) *Extent {
	return &Extent{Bounds: &geom.Bounds{
		Min: geom.Point{X: x2min, Y: x1min},
		Max: geom.Point{X: x2max, Y: x1max},
	}}
}

func (e *Extent) bounds() *geom.Bounds {
	if e == nil {
		return nil
	}
	if e.Global {
		return &geom.Bounds{Min: geom.Point{X: -180, Y: -90}, Max: geom.Point{X: 180, Y: 90}}
	}
	return e.Bounds
}

// MapOptions is what every map-axes renderer shares.
type MapOptions struct {
	// Extent to show. Nil lets the data decide.
	Extent *Extent
	// Size is the side of one panel in inches. Default 6 for single maps.
	Size float64
	// Coastlines in (lon, lat).
	Coastlines []geom.LineString
	// Gridlines draws meridians and parallels.
	Gridlines bool
	// Scatter styles candidate and context markers.
	Scatter ScatterStyle
}

// ScatterStyle is the forwarded styling of scatter overlays.
type ScatterStyle struct {
	Radius    vg.Length
	LineWidth vg.Length
}

func (s ScatterStyle) radius() vg.Length {
	if s.Radius > 0 {
		return s.Radius
	}
	return vg.Points(3)
}

// setupMap turns ax into a map axes under proj showing extent.
func setupMap(ax *Axes, p *Projection, extent *Extent, gridlines bool) error {
	if p == nil {
		p = PlateCarree()
	}
	ax.Projection = p
	hideTicks(ax.Plot)
	b := extent.bounds()
	if b == nil {
		return nil
	}
	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	// Sample the boundary so curved projections get their full range.
	const n = 16
	for i := 0; i <= n; i++ {
		f := float64(i) / n
		for _, pt := range [][2]float64{
			{b.Min.X + f*(b.Max.X-b.Min.X), b.Min.Y},
			{b.Min.X + f*(b.Max.X-b.Min.X), b.Max.Y},
			{b.Min.X, b.Min.Y + f*(b.Max.Y-b.Min.Y)},
			{b.Max.X, b.Min.Y + f*(b.Max.Y-b.Min.Y)},
		} {
			x, y, err := p.Project(pt[0], pt[1])
			if err != nil || math.IsInf(x, 0) || math.IsInf(y, 0) {
				continue
			}
			xmin, xmax = math.Min(xmin, x), math.Max(xmax, x)
			ymin, ymax = math.Min(ymin, y), math.Max(ymax, y)
		}
	}
	if xmin > xmax || ymin > ymax {
		return fmt.Errorf("figures: extent %v cannot be projected with %s", *b, p.Name)
	}
	ax.extent = &[4]float64{xmin, xmax, ymin, ymax}
	ax.holdExtent()
	if gridlines {
		addGridlines(ax, b)
	}
	return nil
}

// holdExtent resets the axis ranges to the map extent. plot.Add widens
// them to every plotter's data range, so it runs again after drawing
// layers and before rendering.
func (ax *Axes) holdExtent() {
	if e := ax.extent; e != nil {
		ax.Plot.X.Min, ax.Plot.X.Max = e[0], e[1]
		ax.Plot.Y.Min, ax.Plot.Y.Max = e[2], e[3]
	}
}

// addGridlines draws faint meridians and parallels over b.
func addGridlines(ax *Axes, b *geom.Bounds) {
	sty := draw.LineStyle{Color: color.NRGBA{A: 51}, Width: vg.Points(0.5)}
	step := func(span float64) float64 {
		ticks := plot.DefaultTicks{}.Ticks(0, span)
		for i := 1; i < len(ticks); i++ {
			if ticks[i].Label != "" && ticks[i-1].Label != "" {
				return ticks[i].Value - ticks[i-1].Value
			}
		}
		return span / 4
	}
	dx, dy := step(b.Max.X-b.Min.X), step(b.Max.Y-b.Min.Y)
	var lines []geom.LineString
	for x := math.Ceil(b.Min.X/dx) * dx; x <= b.Max.X; x += dx {
		lines = append(lines, densify(geom.Point{X: x, Y: b.Min.Y}, geom.Point{X: x, Y: b.Max.Y}))
	}
	for y := math.Ceil(b.Min.Y/dy) * dy; y <= b.Max.Y; y += dy {
		lines = append(lines, densify(geom.Point{X: b.Min.X, Y: y}, geom.Point{X: b.Max.X, Y: y}))
	}
	addLines(ax, lines, sty)
}

func densify(a, b geom.Point) geom.LineString {
	const n = 32
	ls := make(geom.LineString, n+1)
	for i := range ls {
		f := float64(i) / n
		ls[i] = geom.Point{X: a.X + f*(b.X-a.X), Y: a.Y + f*(b.Y-a.Y)}
	}
	return ls
}

// AddCoastlines draws (lon, lat) lines in black through the axes'
// projection.
func (ax *Axes) AddCoastlines(coast []geom.LineString) {
	addLines(ax, coast, draw.LineStyle{Color: color.Black, Width: vg.Points(0.75)})
}

func addLines(ax *Axes, lines []geom.LineString, sty draw.LineStyle) {
	for _, ls := range lines {
		pl, err := ax.Projection.ProjectLine(ls)
		if err != nil {
			continue
		}
		xys := make(plotter.XYs, 0, len(pl))
		for _, pt := range pl {
			if math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) || math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
				continue
			}
			xys = append(xys, plotter.XY{X: pt.X, Y: pt.Y})
		}
		if len(xys) < 2 {
			continue
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			continue
		}
		l.LineStyle = sty
		ax.Plot.Add(l)
	}
}

// projectXY maps raw (x2, x1) pairs onto the axes' plane, dropping points
// the projection cannot represent.
func (ax *Axes) projectXY(x2, x1 []float64) plotter.XYs {
	xys, _ := ax.projectKept(x2, x1)
	return xys
}

// projectKept is projectXY that also returns the index of every point it
// kept.
func (ax *Axes) projectKept(x2, x1 []float64) (plotter.XYs, []int) {
	xys := make(plotter.XYs, 0, len(x1))
	kept := make([]int, 0, len(x1))
	for i := range x1 {
		x, y, err := ax.Projection.Project(x2[i], x1[i])
		if err != nil || !finite(x) || !finite(y) {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
		kept = append(kept, i)
	}
	return xys, kept
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// projectedMesh draws a raster given on (x1, x2) coordinate axes as one
// filled quadrilateral per cell, each corner projected separately.
type projectedMesh struct {
	// values is [len(x1)][len(x2)] row-major.
	values []float64
	// e1 and e2 are the cell edges along x1 and x2.
	e1, e2 []float64
	cmap   *ListedColorMap
	proj   *Projection
}

func newProjectedMesh(values, x1, x2 []float64, cmap *ListedColorMap, p *Projection) (*projectedMesh, error) {
	e1, err := edges(x1)
	if err != nil {
		return nil, fmt.Errorf("x1: %w", err)
	}
	e2, err := edges(x2)
	if err != nil {
		return nil, fmt.Errorf("x2: %w", err)
	}
	if len(values) != len(x1)*len(x2) {
		return nil, fmt.Errorf("%w: %d values on a %dx%d mesh", tensor.ErrShape, len(values), len(x1), len(x2))
	}
	return &projectedMesh{values: values, e1: e1, e2: e2, cmap: cmap, proj: p}, nil
}

// edges returns the cell boundaries around coordinate centres c.
func edges(c []float64) ([]float64, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: no coordinates to mesh", tensor.ErrShape)
	}
	e := make([]float64, len(c)+1)
	if len(c) == 1 {
		e[0], e[1] = c[0]-0.5, c[0]+0.5
		return e, nil
	}
	for i := 1; i < len(c); i++ {
		e[i] = (c[i-1] + c[i]) / 2
	}
	e[0] = c[0] - (e[1] - c[0])
	e[len(c)] = c[len(c)-1] + (c[len(c)-1] - e[len(c)-1])
	return e, nil
}

// Plot implements plot.Plotter.
func (m *projectedMesh) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	e1, e2 := m.e1, m.e2
	cols := len(e2) - 1
	for r := 0; r < len(e1)-1; r++ {
		for q := 0; q < cols; q++ {
			col, err := m.cmap.At(m.values[r*cols+q])
			if err != nil {
				continue
			}
			corners := [4][2]float64{{e2[q], e1[r]}, {e2[q+1], e1[r]}, {e2[q+1], e1[r+1]}, {e2[q], e1[r+1]}}
			pts := make([]vg.Point, 0, 4)
			for _, cn := range corners {
				x, y, err := m.proj.Project(cn[0], cn[1])
				if err != nil || !finite(x) || !finite(y) {
					break
				}
				pts = append(pts, vg.Point{X: trX(x), Y: trY(y)})
			}
			if len(pts) != 4 {
				continue
			}
			if clipped := c.ClipPolygonXY(pts); len(clipped) > 0 {
				c.FillPolygon(col, clipped)
			}
		}
	}
}

// DataRange implements plot.DataRanger.
func (m *projectedMesh) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, a := range []float64{m.e1[0], m.e1[len(m.e1)-1]} {
		for _, b := range []float64{m.e2[0], m.e2[len(m.e2)-1]} {
			x, y, err := m.proj.Project(b, a)
			if err != nil || !finite(x) || !finite(y) {
				continue
			}
			xmin, xmax = math.Min(xmin, x), math.Max(xmax, x)
			ymin, ymax = math.Min(ymin, y), math.Max(ymax, y)
		}
	}
	return xmin, xmax, ymin, ymax
}
