package figures

import (
	"bytes"
	"errors"
	"image/color"
	"math"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/recorder"

	"github.com/Noofbiz/sensorviz/labeled"
	"github.com/Noofbiz/sensorviz/model"
	"github.com/Noofbiz/sensorviz/processor"
	"github.com/Noofbiz/sensorviz/task"
	"github.com/Noofbiz/sensorviz/tensor"
)

// threeSetMeta has sets of 1, 3 and 2 variables.
func threeSetMeta(t *testing.T) *task.Metadata {
	t.Helper()
	m, err := task.NewMetadata([][]string{{"t2m"}, {"u10", "v10", "sp"}, {"elev", "land"}}, []int{0, -1, 0}, [][]string{{"t2m"}})
	if err != nil {
		t.Fatalf("NewMetadata error: %v", err)
	}
	return m
}

func testProcessor(t *testing.T) *processor.DataProcessor {
	t.Helper()
	p, err := processor.New(processor.Params{
		X1:   processor.CoordParams{Name: "lat", Map: [2]float64{30, 70}},
		X2:   processor.CoordParams{Name: "lon", Map: [2]float64{-10, 30}},
		Vars: map[string]processor.VarParams{"t2m": {Method: processor.MethodMeanStd, Mean: 0, Std: 1}},
	})
	if err != nil {
		t.Fatalf("processor.New error: %v", err)
	}
	return p
}

func TestEncodingLayoutRowsAndCols(t *testing.T) {
	meta := threeSetMeta(t)
	tests := []struct {
		name     string
		sets     []int
		channels int
		rows     int
		cols     int
		order    [][]int
	}{
		{"all", nil, 9, 3, 4, [][]int{{0, 1}, {2, 3, 4, 5}, {6, 7, 8}}},
		{"selection only", []int{2, 0}, 5, 2, 3, [][]int{{0, 1, 2}, {3, 4}}},
		{"selection of full encoding", []int{2, 0}, 9, 2, 3, [][]int{{6, 7, 8}, {0, 1}}},
		{"single", []int{1}, 0, 1, 4, [][]int{{0, 1, 2, 3}}},
		{"every set reordered", []int{2, 0, 1}, 9, 3, 4, [][]int{{0, 1, 2}, {3, 4}, {5, 6, 7, 8}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := EncodingLayout(meta, tc.sets, tc.channels)
			if err != nil {
				t.Fatalf("EncodingLayout error: %v", err)
			}
			if l.Rows != tc.rows || l.Cols != tc.cols {
				t.Fatalf("layout %dx%d, want %dx%d", l.Rows, l.Cols, tc.rows, tc.cols)
			}
			if diff := cmp.Diff(tc.order, l.Channels); diff != "" {
				t.Fatalf("channel order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodingLayoutErrors(t *testing.T) {
	meta := threeSetMeta(t)
	if _, err := EncodingLayout(meta, []int{3}, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := EncodingLayout(meta, []int{0}, 4); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("expected ErrChannelMismatch, got %v", err)
	}
}

func encodingTensor(channels, size int) *tensor.Array {
	enc := tensor.New(2, channels, size, size)
	for i := range enc.Data {
		enc.Data[i] = float64(i % 7)
	}
	return enc
}

func TestContextEncodingFigure(t *testing.T) {
	meta := threeSetMeta(t)
	opts := DefaultEncodingOptions()
	opts.ContextSets = []int{0, 2}
	land := 8
	opts.LandIndex = &land
	fig, err := ContextEncoding(encodingTensor(9, 4), meta, opts)
	if err != nil {
		t.Fatalf("ContextEncoding error: %v", err)
	}
	if fig.Rows != 2 || fig.Cols != 3 {
		t.Fatalf("figure %dx%d, want 2x3", fig.Rows, fig.Cols)
	}
	var titles []string
	for _, ax := range fig.Axes {
		if ax.Hidden {
			titles = append(titles, "-")
			continue
		}
		titles = append(titles, ax.Plot.Title.Text)
		if ax.Colorbar == nil {
			t.Fatalf("cell %q has no colorbar", ax.Plot.Title.Text)
		}
	}
	want := []string{"Density 0", "t2m_t0", "-", "Density 2", "elev_t0", "land_t0"}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Fatalf("titles mismatch (-want +got):\n%s", diff)
	}
	if got := fig.At(1, 0).Plot.Y.Label.Text; got != "Context set 2" {
		t.Fatalf("row label = %q", got)
	}
	if fig.Visible() != 5 {
		t.Fatalf("visible cells = %d, want 5", fig.Visible())
	}

	var buf bytes.Buffer
	if _, err := fig.WriteTo(&buf, "svg"); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("output is not SVG")
	}
}

func TestContextEncodingTitlesOverride(t *testing.T) {
	meta := threeSetMeta(t)
	opts := DefaultEncodingOptions()
	opts.ContextSets = []int{0}
	opts.VerboseTitles = false
	opts.Titles = []string{"coverage"}
	fig, err := ContextEncoding(encodingTensor(2, 4), meta, opts)
	if err != nil {
		t.Fatalf("ContextEncoding error: %v", err)
	}
	if got := fig.Axes[0].Plot.Title.Text; got != "coverage" {
		t.Fatalf("overridden title = %q", got)
	}
	if got := fig.Axes[1].Plot.Title.Text; got != "t2m" {
		t.Fatalf("plain title = %q", got)
	}
}

func TestContextEncodingRejectsBadIndices(t *testing.T) {
	meta := threeSetMeta(t)
	opts := DefaultEncodingOptions()
	opts.BatchIndex = 2
	if _, err := ContextEncoding(encodingTensor(9, 4), meta, opts); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("batch: expected ErrIndexOutOfRange, got %v", err)
	}
	opts = DefaultEncodingOptions()
	land := 9
	opts.LandIndex = &land
	if _, err := ContextEncoding(encodingTensor(9, 4), meta, opts); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("land: expected ErrIndexOutOfRange, got %v", err)
	}
}

func scatterTask(t *testing.T) *task.Task {
	t.Helper()
	// One point at x1=0.25, x2=0.75 in normalised units.
	x, _ := tensor.FromSlice([]float64{0.25, 0.75}, 2, 1)
	y, _ := tensor.FromSlice([]float64{3.14159}, 1, 1)
	xt, _ := tensor.FromSlice([]float64{0.5, 0.5}, 2, 1)
	return &task.Task{
		XC: []task.Set{task.DenseSet(x), task.GridSet([]float64{0, 1}, []float64{0, 1})},
		YC: []task.Set{task.DenseSet(y), task.DenseSet(tensor.New(1, 2, 2))},
		XT: []task.Set{task.DenseSet(xt)},
	}
}

func TestOffgridContextReversesCoordinates(t *testing.T) {
	fig := NewFigure(1, 2, 3)
	opts := DefaultOverlayOptions()
	opts.Processor = testProcessor(t)
	if err := OffgridContext(fig.Axes, scatterTask(t), opts); err != nil {
		t.Fatalf("OffgridContext error: %v", err)
	}
	// x1 = 30 + 0.25*40 = 40 (lat), x2 = -10 + 0.75*40 = 20 (lon).
	for i, ax := range fig.Axes {
		p := ax.Plot
		if p.X.Min != 20 || p.X.Max != 20 || p.Y.Min != 40 || p.Y.Max != 40 {
			t.Fatalf("axes %d range x=[%v,%v] y=[%v,%v], want point at (20, 40)", i, p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
		}
	}
}

func TestOffgridContextLabels(t *testing.T) {
	meta := threeSetMeta(t)
	opts := OverlayOptions{Metadata: meta, PlotTarget: true}
	if got := overlayLabel(0, 2, opts); got != "Context set 0 ('t2m',)" {
		t.Fatalf("context label = %q", got)
	}
	if got := overlayLabel(2, 2, opts); got != "Target set 0 ('t2m',)" {
		t.Fatalf("target label = %q", got)
	}
	opts.PlotTarget = false
	if got := overlayLabel(0, 2, opts); got != "" {
		t.Fatalf("label without targets = %q", got)
	}
}

func TestMarkerCycleWraps(t *testing.T) {
	if cycle("ovs^D", 6) != 'v' || cycle("kbrgy", 5) != 'k' {
		t.Fatalf("cycle does not wrap")
	}
}

func TestMarkersAreHollow(t *testing.T) {
	if _, ok := glyphFor('o').(draw.RingGlyph); !ok {
		t.Fatalf("'o' draws %T, want draw.RingGlyph", glyphFor('o'))
	}
	for _, code := range []byte("vs^D") {
		if _, ok := glyphFor(code).(polygonGlyph); !ok {
			t.Fatalf("%q draws %T, want an outlined polygon", code, glyphFor(code))
		}
	}
	if _, ok := glyphFor('x').(draw.CrossGlyph); !ok {
		t.Fatalf("'x' draws %T", glyphFor('x'))
	}

	rec := &recorder.Canvas{}
	c := draw.NewCanvas(rec, vg.Inch, vg.Inch)
	squareGlyph.DrawGlyph(&c, draw.GlyphStyle{Color: color.Black, Radius: vg.Points(4)}, vg.Point{X: 36, Y: 36})
	var strokes int
	for _, a := range rec.Actions {
		switch a.(type) {
		case *recorder.Fill:
			t.Fatalf("square glyph fills its path")
		case *recorder.Stroke:
			strokes++
		}
	}
	if strokes != 1 {
		t.Fatalf("square glyph strokes %d paths, want 1", strokes)
	}
}

func TestObservationLabelFormat(t *testing.T) {
	coords := []float64{40, 20} // (2, 1): x1=40, x2=20
	got := observationLabels(coords, []float64{3.14159}, ObservationOptions{Format: "%.1f"})
	if diff := cmp.Diff([]string{"3.1"}, got.Labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
	if got.XYs[0].X != 20 || got.XYs[0].Y != 40 {
		t.Fatalf("label drawn at %v, want (20, 40)", got.XYs[0])
	}
	out := observationLabels(coords, []float64{3.14159}, ObservationOptions{Extent: &[4]float64{0, 10, 0, 10}})
	if len(out.Labels) != 0 {
		t.Fatalf("extent filter kept %v", out.Labels)
	}
}

func TestOffgridContextObservationsRejects(t *testing.T) {
	meta := threeSetMeta(t)
	proc := testProcessor(t)
	tk := scatterTask(t)
	fig := NewFigure(1, 1, 3)
	if err := OffgridContextObservations(fig.Axes, tk, proc, meta, 0, ObservationOptions{Format: "%.1f"}); err != nil {
		t.Fatalf("single-variable set: %v", err)
	}
	multi, _ := task.NewMetadata([][]string{{"u10", "v10"}, {"x"}}, nil, nil)
	if err := OffgridContextObservations(fig.Axes, tk, proc, multi, 0, ObservationOptions{}); !errors.Is(err, ErrMultiVariableSet) {
		t.Fatalf("expected ErrMultiVariableSet, got %v", err)
	}
	gridded, _ := task.NewMetadata([][]string{{"t2m"}, {"t2m"}}, nil, nil)
	if err := OffgridContextObservations(fig.Axes, tk, proc, gridded, 1, ObservationOptions{}); !errors.Is(err, ErrGriddedSet) {
		t.Fatalf("expected ErrGriddedSet, got %v", err)
	}
	if err := OffgridContextObservations(fig.Axes, tk, proc, meta, 5, ObservationOptions{}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestOffgridContextObservationsSkipsUnprojectable(t *testing.T) {
	// Raw (lat, lon) of (90, 10) and (50, 10); Mercator cannot place the pole.
	x, _ := tensor.FromSlice([]float64{1.5, 0.5, 0.5, 0.5}, 2, 2)
	y, _ := tensor.FromSlice([]float64{1, 2}, 1, 2)
	tk := &task.Task{XC: []task.Set{task.DenseSet(x)}, YC: []task.Set{task.DenseSet(y)}}
	meta, err := task.NewMetadata([][]string{{"t2m"}}, nil, nil)
	if err != nil {
		t.Fatalf("NewMetadata error: %v", err)
	}
	merc, err := NewProjection("+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs")
	if err != nil {
		t.Fatalf("NewProjection error: %v", err)
	}
	fig := NewFigure(1, 1, 3)
	fig.Axes[0].Projection = merc
	if err := OffgridContextObservations(fig.Axes, tk, testProcessor(t), meta, 0, ObservationOptions{Format: "%.1f"}); err != nil {
		t.Fatalf("OffgridContextObservations error: %v", err)
	}
	var buf bytes.Buffer
	if _, err := fig.WriteTo(&buf, "svg"); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	if svg := buf.String(); !strings.Contains(svg, ">2.0<") || strings.Contains(svg, ">1.0<") {
		t.Fatalf("want only the label at lat 50 drawn")
	}
}

func TestProjectKeptDropsFailures(t *testing.T) {
	ax := &Axes{Projection: &Projection{Name: "test", transform: func(x, y float64) (float64, float64, error) {
		if y > 80 {
			return 0, 0, errors.New("out of domain")
		}
		if y < -80 {
			return math.Inf(1), y, nil
		}
		return x, y, nil
	}}}
	xys, kept := ax.projectKept([]float64{0, 1, 2}, []float64{85, 10, -85})
	if diff := cmp.Diff([]int{1}, kept); diff != "" {
		t.Fatalf("kept mismatch (-want +got):\n%s", diff)
	}
	if len(xys) != 1 || xys[0].X != 1 || xys[0].Y != 10 {
		t.Fatalf("projected %v, want [(1, 10)]", xys)
	}
}

func TestReceptiveField(t *testing.T) {
	proc := testProcessor(t)
	box := NewReceptiveFieldBox(0.25, proc)
	want := ReceptiveFieldBox{X1Size: 10, X2Size: 10, X1Corner: 45, X2Corner: 5}
	if diff := cmp.Diff(want, box); diff != "" {
		t.Fatalf("box mismatch (-want +got):\n%s", diff)
	}
	fig, err := ReceptiveField(0.25, proc, PlateCarree(), MapOptions{})
	if err != nil {
		t.Fatalf("ReceptiveField error: %v", err)
	}
	if got := fig.Axes[0].Plot.Title.Text; got != "Receptive field in raw coords: lat=10.00, lon=10.00" {
		t.Fatalf("title = %q", got)
	}
}

func TestSampleChannelsDistinct(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, tc := range []struct{ n, k, want int }{{8, 3, 3}, {4, 10, 4}, {1, 1, 1}} {
		idx := SampleChannels(rng, tc.n, tc.k)
		if len(idx) != tc.want {
			t.Fatalf("n=%d k=%d: got %d channels, want %d", tc.n, tc.k, len(idx), tc.want)
		}
		seen := make(map[int]bool)
		for _, i := range idx {
			if i < 0 || i >= tc.n || seen[i] {
				t.Fatalf("n=%d k=%d: bad sample %v", tc.n, tc.k, idx)
			}
			seen[i] = true
		}
	}
}

func TestFeatureMaps(t *testing.T) {
	m, err := model.NewConvNP(model.Config{GridSize: 8, Channels: []int{3, 4}, Seed: 5}, []int{1, 1})
	if err != nil {
		t.Fatalf("NewConvNP error: %v", err)
	}
	opts := DefaultFeatureMapOptions()
	opts.PerLayer = 3
	for _, replay := range []bool{false, true} {
		opts.Replay = replay
		figs, err := FeatureMaps[*tensor.Array](m, scatterTask(t), tensor.Identity, opts)
		if err != nil {
			t.Fatalf("FeatureMaps(replay=%v) error: %v", replay, err)
		}
		// 2 down + turn + 1 up + final
		if len(figs) != 5 {
			t.Fatalf("got %d figures, want 5", len(figs))
		}
		if got := figs[0].Title; !strings.HasPrefix(got, "Layer 0 feature map. Shape: (1, 3, 4, 4). Min=") {
			t.Fatalf("suptitle = %q", got)
		}
		// The final layer has 2 channels, fewer than requested.
		if figs[4].Cols != 2 {
			t.Fatalf("final layer panels = %d, want 2", figs[4].Cols)
		}
		if !strings.HasPrefix(figs[1].Axes[0].Plot.Title.Text, "Feature ") {
			t.Fatalf("panel title = %q", figs[1].Axes[0].Plot.Title.Text)
		}
	}
}

func acquisitionArray(t *testing.T, dims []string, shape ...int) *labeled.Array {
	t.Helper()
	data := tensor.New(shape...)
	for i := range data.Data {
		data.Data[i] = float64(i)
	}
	coords := map[string][]float64{"lat": make([]float64, 0), "lon": make([]float64, 0)}
	for i, d := range dims {
		switch d {
		case "lat":
			for j := 0; j < shape[i]; j++ {
				coords["lat"] = append(coords["lat"], 35+float64(j)*10)
			}
		case "lon":
			for j := 0; j < shape[i]; j++ {
				coords["lon"] = append(coords["lon"], -5+float64(j)*10)
			}
		}
	}
	a, err := labeled.New("acq", dims, coords, data)
	if err != nil {
		t.Fatalf("labeled.New error: %v", err)
	}
	return a
}

func TestAcquisitionLayout(t *testing.T) {
	for _, tc := range []struct{ n, max, rows, cols int }{
		{7, 5, 2, 5}, {5, 5, 1, 5}, {3, 5, 1, 3}, {1, 5, 1, 1}, {11, 4, 3, 4},
	} {
		r, c := AcquisitionLayout(tc.n, tc.max)
		if r != tc.rows || c != tc.cols {
			t.Fatalf("AcquisitionLayout(%d, %d) = %dx%d, want %dx%d", tc.n, tc.max, r, c, tc.rows, tc.cols)
		}
	}
}

func TestAcquisitionFnPanels(t *testing.T) {
	acq := acquisitionArray(t, []string{"iteration", "lat", "lon"}, 7, 3, 4)
	cands := &task.Placements{Rows: []task.Placement{{Iteration: 0, X1: 40, X2: 0}, {Iteration: 3, X1: 50, X2: 10}}}
	fig, err := AcquisitionFn(scatterTask(t), acq, cands, testProcessor(t), PlateCarree(), DefaultAcquisitionOptions())
	if err != nil {
		t.Fatalf("AcquisitionFn error: %v", err)
	}
	if fig.Rows != 2 || fig.Cols != 5 {
		t.Fatalf("figure %dx%d, want 2x5", fig.Rows, fig.Cols)
	}
	if n := len(fig.Flat()); n != 7 {
		t.Fatalf("panels = %d, want 7", n)
	}
	if got := fig.Axes[6].Plot.Title.Text; got != "iteration=6" {
		t.Fatalf("panel title = %q", got)
	}
	if fig.Colorbar == nil || fig.Colorbar.Label != "acq" {
		t.Fatalf("missing docked colorbar")
	}
	if fig.Colorbar.Map.Min() != 0 || fig.Colorbar.Map.Max() != 83 {
		t.Fatalf("shared range = [%v, %v], want [0, 83]", fig.Colorbar.Map.Min(), fig.Colorbar.Map.Max())
	}

	path := filepath.Join(t.TempDir(), "acq.png")
	fig.DPI = 40
	if err := fig.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
}

func TestAcquisitionAveragesTimeAndSample(t *testing.T) {
	acq := acquisitionArray(t, []string{"time", "iteration", "lat", "lon", "sample"}, 2, 2, 2, 2, 3)
	out, avg, err := PrepareAcquisition(acq, "iteration", [2]string{"lat", "lon"})
	if err != nil {
		t.Fatalf("PrepareAcquisition error: %v", err)
	}
	if diff := cmp.Diff([]string{"time", "sample"}, avg); diff != "" {
		t.Fatalf("averaged dims mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"iteration", "lat", "lon"}, out.Dims); diff != "" {
		t.Fatalf("dims mismatch (-want +got):\n%s", diff)
	}

	plain := acquisitionArray(t, []string{"iteration", "lat", "lon"}, 2, 2, 2)
	same, avg, err := PrepareAcquisition(plain, "iteration", [2]string{"lat", "lon"})
	if err != nil || len(avg) != 0 || same != plain {
		t.Fatalf("array without time/sample was changed: avg=%v err=%v", avg, err)
	}
}

func TestAcquisitionRejectsUnknownDim(t *testing.T) {
	acq := acquisitionArray(t, []string{"iteration", "depth", "lat", "lon"}, 2, 2, 2, 2)
	_, err := AcquisitionFn(scatterTask(t), acq, nil, testProcessor(t), PlateCarree(), DefaultAcquisitionOptions())
	if !errors.Is(err, ErrUnsupportedDim) {
		t.Fatalf("expected ErrUnsupportedDim, got %v", err)
	}
	if !strings.Contains(err.Error(), `"depth"`) {
		t.Fatalf("error does not name the dim: %v", err)
	}
}

func TestAcquisitionNonIterationColumn(t *testing.T) {
	acq := acquisitionArray(t, []string{"sensor", "lat", "lon"}, 3, 2, 2)
	opts := DefaultAcquisitionOptions()
	opts.ColumnDim = "sensor"
	if _, err := AcquisitionFn(scatterTask(t), acq, nil, testProcessor(t), PlateCarree(), opts); !errors.Is(err, ErrIterationCount) {
		t.Fatalf("expected ErrIterationCount, got %v", err)
	}
	acq.Scalars["iteration"] = 2
	fig, err := AcquisitionFn(scatterTask(t), acq, nil, testProcessor(t), PlateCarree(), opts)
	if err != nil {
		t.Fatalf("AcquisitionFn error: %v", err)
	}
	if got := fig.Axes[0].Plot.Title.Text; got != "sensor=0" {
		t.Fatalf("panel title = %q", got)
	}
}

// redFills counts the filled red glyphs drawn by one panel.
func redFills(t *testing.T, ax *Axes) int {
	t.Helper()
	rec := &recorder.Canvas{}
	ax.Plot.Draw(draw.NewCanvas(rec, 3*vg.Inch, 3*vg.Inch))
	red := color.NRGBA{R: 255, A: 255}
	var cur color.Color
	var n int
	for _, a := range rec.Actions {
		switch a := a.(type) {
		case *recorder.SetColor:
			cur = a.Color
		case *recorder.Fill:
			if cur == red {
				n++
			}
		}
	}
	return n
}

func TestAcquisitionFnCandidatesUpToColumn(t *testing.T) {
	acq := acquisitionArray(t, []string{"iteration", "lat", "lon"}, 3, 2, 2)
	cands := &task.Placements{Rows: []task.Placement{
		{Iteration: 0, X1: 37, X2: -3},
		{Iteration: 1, X1: 40, X2: 0},
		{Iteration: 2, X1: 43, X2: 3},
	}}
	fig, err := AcquisitionFn(scatterTask(t), acq, cands, testProcessor(t), PlateCarree(), DefaultAcquisitionOptions())
	if err != nil {
		t.Fatalf("AcquisitionFn error: %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if got := redFills(t, fig.Axes[i]); got != want {
			t.Fatalf("panel %d (%s) shows %d candidates, want %d", i, fig.Axes[i].Plot.Title.Text, got, want)
		}
	}
}

func TestAcquisitionRejectsFractionalIteration(t *testing.T) {
	acq := acquisitionArray(t, []string{"sensor", "lat", "lon"}, 2, 2, 2)
	acq.Scalars["iteration"] = 1.5
	opts := DefaultAcquisitionOptions()
	opts.ColumnDim = "sensor"
	if _, err := AcquisitionFn(scatterTask(t), acq, nil, testProcessor(t), PlateCarree(), opts); !errors.Is(err, ErrIterationValue) {
		t.Fatalf("expected ErrIterationValue, got %v", err)
	}
}

func TestMeshEdges(t *testing.T) {
	if _, err := edges(nil); !errors.Is(err, tensor.ErrShape) {
		t.Fatalf("expected tensor.ErrShape for no coordinates, got %v", err)
	}
	got, err := edges([]float64{35, 45})
	if err != nil {
		t.Fatalf("edges error: %v", err)
	}
	if diff := cmp.Diff([]float64{30, 40, 50}, got); diff != "" {
		t.Fatalf("edges mismatch (-want +got):\n%s", diff)
	}
	if _, err := newProjectedMesh([]float64{1, 2, 3}, []float64{0, 1}, []float64{0, 1}, nil, nil); !errors.Is(err, tensor.ErrShape) {
		t.Fatalf("expected tensor.ErrShape for value count, got %v", err)
	}
}

func TestPlacementsHeldToExtent(t *testing.T) {
	cands := &task.Placements{Rows: []task.Placement{{X1: 60, X2: 25}}}
	fig, err := Placements(scatterTask(t), cands, testProcessor(t), PlateCarree(), MapOptions{Extent: BoundsExtent(0, 10, 40, 50)})
	if err != nil {
		t.Fatalf("Placements error: %v", err)
	}
	p := fig.Axes[0].Plot
	if p.X.Min != 0 || p.X.Max != 10 || p.Y.Min != 40 || p.Y.Max != 50 {
		t.Fatalf("range x=[%v,%v] y=[%v,%v], want x=[0,10] y=[40,50]", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
	cm, err := scaledColormap("Greys", 0, 1)
	if err != nil {
		t.Fatalf("scaledColormap error: %v", err)
	}
	mesh, err := newProjectedMesh([]float64{0.5}, []float64{50}, []float64{10}, cm, PlateCarree())
	if err != nil {
		t.Fatalf("newProjectedMesh error: %v", err)
	}
	p.Add(mesh)
	var buf bytes.Buffer
	if _, err := fig.WriteTo(&buf, "svg"); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	if p.X.Min != 0 || p.X.Max != 10 || p.Y.Min != 40 || p.Y.Max != 50 {
		t.Fatalf("drawn range x=[%v,%v] y=[%v,%v], want x=[0,10] y=[40,50]", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
}

func TestPlacementsFigure(t *testing.T) {
	cands := &task.Placements{Rows: []task.Placement{{X1: 60, X2: 25}}}
	fig, err := Placements(scatterTask(t), cands, testProcessor(t), PlateCarree(), MapOptions{})
	if err != nil {
		t.Fatalf("Placements error: %v", err)
	}
	p := fig.Axes[0].Plot
	// Candidate at (25, 60) and context at (20, 40).
	if p.X.Min != 20 || p.X.Max != 25 || p.Y.Min != 40 || p.Y.Max != 60 {
		t.Fatalf("range x=[%v,%v] y=[%v,%v]", p.X.Min, p.X.Max, p.Y.Min, p.Y.Max)
	}
}

func TestColormap(t *testing.T) {
	cm, err := Colormap("viridis_r")
	if err != nil {
		t.Fatalf("Colormap error: %v", err)
	}
	c, _ := cm.At(0)
	if r, g, b, _ := c.RGBA(); r>>8 != 0xfd || g>>8 != 0xe7 || b>>8 != 0x25 {
		t.Fatalf("reversed viridis starts at %v", c)
	}
	if _, err := cm.At(5); err != nil {
		t.Fatalf("out of range value not clamped: %v", err)
	}
	for _, name := range []string{"Greys", "Greys_r", "RdBu", "coolwarm", "kindlmann", "blackbody"} {
		if _, err := Colormap(name); err != nil {
			t.Fatalf("Colormap(%q) error: %v", name, err)
		}
	}
	if _, err := Colormap("nope"); err == nil {
		t.Fatalf("expected error for unknown colormap")
	}
}
