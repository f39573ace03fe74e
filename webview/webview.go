// Package webview renders acquisition surfaces and context encodings as an
// interactive HTML page of echarts heatmaps.
package webview

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Noofbiz/sensorviz/figures"
	"github.com/Noofbiz/sensorviz/labeled"
	"github.com/Noofbiz/sensorviz/task"
	"github.com/Noofbiz/sensorviz/tensor"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// Options configures the page.
type Options struct {
	// Title of the page.
	Title string
	// ColumnDim is the acquisition dim spread over charts.
	ColumnDim string
	// Spatial names the (row, col) dims of each chart, e.g. lat and lon.
	Spatial [2]string
	// AssetsHost overrides where the echarts scripts are loaded from.
	AssetsHost string
	// Size is the side of one chart in pixels.
	Size int
}

func (o Options) withDefaults() Options {
	if o.ColumnDim == "" {
		o.ColumnDim = "iteration"
	}
	if o.Size <= 0 {
		o.Size = 360
	}
	if o.Title == "" {
		o.Title = "sensorviz"
	}
	return o
}

func labels(c []float64) []string {
	out := make([]string, len(c))
	for i, v := range c {
		out[i] = strconv.FormatFloat(v, 'g', 4, 64)
	}
	return out
}

// heatmap builds one chart of a [rows][cols] grid. Row 0 is drawn at the
// bottom.
func heatmap(o Options, title string, vals *tensor.Array, rows, cols []string, lo, hi float64) *charts.HeatMap {
	data := make([]opts.HeatMapData, 0, vals.Size())
	w := vals.Shape[1]
	for r := 0; r < vals.Shape[0]; r++ {
		for c := 0; c < w; c++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, vals.Data[r*w+c]}})
		}
	}
	hm := charts.NewHeatMap()
	initOpts := opts.Initialization{
		PageTitle: o.Title,
		Width:     strconv.Itoa(o.Size) + "px",
		Height:    strconv.Itoa(o.Size) + "px",
	}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: o.Spatial[1]}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: o.Spatial[0], Data: rows}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	hm.SetXAxis(cols).AddSeries(title, data)
	return hm
}

func render(w io.Writer, o Options, hms []*charts.HeatMap) error {
	page := components.NewPage()
	page.PageTitle = o.Title
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	for _, hm := range hms {
		page.AddCharts(hm)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// AcquisitionHTML writes one heatmap per value of the column dim, all on a
// shared color scale. Dims are checked and averaged like AcquisitionFn.
func AcquisitionHTML(w io.Writer, acq *labeled.Array, o Options) error {
	o = o.withDefaults()
	acq, _, err := figures.PrepareAcquisition(acq, o.ColumnDim, o.Spatial)
	if err != nil {
		return err
	}
	rowCoords, err := acq.Coord(o.Spatial[0])
	if err != nil {
		return err
	}
	colCoords, err := acq.Coord(o.Spatial[1])
	if err != nil {
		return err
	}
	rows, cols := labels(rowCoords), labels(colCoords)
	lo, hi := acq.Min(), acq.Max()

	panels := []*labeled.Array{acq}
	titles := []string{acq.Name}
	if acq.Has(o.ColumnDim) {
		vals, _ := acq.Coord(o.ColumnDim)
		panels, titles = nil, nil
		for i, v := range vals {
			p, err := acq.Sel(o.ColumnDim, i)
			if err != nil {
				return err
			}
			panels = append(panels, p)
			titles = append(titles, o.ColumnDim+"="+strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	hms := make([]*charts.HeatMap, len(panels))
	for i, p := range panels {
		vals, err := p.Values2D(o.Spatial[0], o.Spatial[1])
		if err != nil {
			return err
		}
		hms[i] = heatmap(o, titles[i], vals, rows, cols, lo, hi)
	}
	return render(w, o, hms)
}

// EncodingHTML writes one heatmap per drawn channel of batch 0 of an
// encoding, laid out like figures.ContextEncoding.
func EncodingHTML(w io.Writer, enc *tensor.Array, meta *task.Metadata, sets []int, o Options) error {
	o = o.withDefaults()
	if enc.Rank() != 4 {
		return fmt.Errorf("%w: encoding must be [batch, channel, row, col], got %v", tensor.ErrShape, enc.Shape)
	}
	batch, err := enc.Index(0)
	if err != nil {
		return err
	}
	layout, err := figures.EncodingLayout(meta, sets, batch.Shape[0])
	if err != nil {
		return err
	}
	rows := make([]string, batch.Shape[1])
	for i := range rows {
		rows[i] = strconv.Itoa(i)
	}
	cols := make([]string, batch.Shape[2])
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}
	var hms []*charts.HeatMap
	for r, set := range layout.Sets {
		ids := meta.ContextIDs(set, true)
		for c, ch := range layout.Channels[r] {
			vals, err := batch.Index(ch)
			if err != nil {
				return err
			}
			title := fmt.Sprintf("Density %d", set)
			if c > 0 && c-1 < len(ids) {
				title = ids[c-1]
			}
			hms = append(hms, heatmap(o, title, vals, rows, cols, vals.Min(), vals.Max()))
		}
	}
	return render(w, o, hms)
}
