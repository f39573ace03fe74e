package task

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Noofbiz/sensorviz/tensor"
)

func TestMetadataChannelsAndIDs(t *testing.T) {
	meta, err := NewMetadata([][]string{{"t2m"}, {"u10", "v10"}, {"land"}}, []int{0, -1, 0}, [][]string{{"t2m"}})
	if err != nil {
		t.Fatalf("NewMetadata error: %v", err)
	}
	got, err := meta.ContextChannels([]int{1, 0})
	if err != nil {
		t.Fatalf("ContextChannels error: %v", err)
	}
	if diff := cmp.Diff([]int{3, 2}, got); diff != "" {
		t.Fatalf("channels mismatch (-want +got):\n%s", diff)
	}
	if _, err := meta.ContextChannels([]int{3}); !errors.Is(err, ErrSet) {
		t.Fatalf("expected ErrSet for out of range set, got %v", err)
	}
	if diff := cmp.Diff([]string{"u10_t-1", "v10_t-1"}, meta.ContextIDs(1, true)); diff != "" {
		t.Fatalf("verbose ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"u10", "v10"}, meta.ContextIDs(1, false)); diff != "" {
		t.Fatalf("plain ids mismatch (-want +got):\n%s", diff)
	}
	if got := FormatIDs([]string{"t2m"}); got != "('t2m',)" {
		t.Fatalf("FormatIDs = %q", got)
	}
	if got := FormatIDs([]string{"u10", "v10"}); got != "('u10', 'v10')" {
		t.Fatalf("FormatIDs = %q", got)
	}
}

func TestScatterCoordsDropsBatch(t *testing.T) {
	x, _ := tensor.FromSlice([]float64{1, 2, 3, 4, 9, 9, 9, 9}, 2, 2, 2)
	got, err := ScatterCoords(DenseSet(x))
	if err != nil {
		t.Fatalf("ScatterCoords error: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 4}, got.Data); diff != "" {
		t.Fatalf("coords mismatch (-want +got):\n%s", diff)
	}
	if _, err := ScatterCoords(GridSet([]float64{0}, []float64{0})); !errors.Is(err, ErrSet) {
		t.Fatalf("expected ErrSet for gridded set, got %v", err)
	}
}

func TestReadPlacementsCSV(t *testing.T) {
	csv := "iteration,Lat,lon,score\n0,51.5,-0.1,0.9\n1,48.8,2.3,0.7\n2,40.4,-3.7,0.5\n"
	p, err := ReadPlacementsCSV(strings.NewReader(csv), "lat", "lon")
	if err != nil {
		t.Fatalf("ReadPlacementsCSV error: %v", err)
	}
	if len(p.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(p.Rows))
	}
	up := p.UpTo(1)
	want := []Placement{{Iteration: 0, X1: 51.5, X2: -0.1}, {Iteration: 1, X1: 48.8, X2: 2.3}}
	if diff := cmp.Diff(want, up); diff != "" {
		t.Fatalf("UpTo(1) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, p.Iterations()); diff != "" {
		t.Fatalf("Iterations mismatch (-want +got):\n%s", diff)
	}

	if _, err := ReadPlacementsCSV(strings.NewReader("iteration,lat\n0,1\n"), "lat", "lon"); err == nil {
		t.Fatalf("expected error for missing lon column")
	}
}

func TestLoadBundle(t *testing.T) {
	doc := `
time: "2020-01-01"
context:
  - x: {shape: [2, 3], data: [0.1, 0.5, 0.9, 0.2, 0.4, 0.6]}
    y: {shape: [1, 3], data: [0.0, 1.0, -1.0]}
  - grid: {x1: [0.0, 0.5, 1.0], x2: [0.0, 1.0]}
    y: {shape: [1, 3, 2], data: [1, 1, 0, 0, 1, 0]}
loader:
  context_var_ids: [["t2m"], ["land"]]
processor:
  x1: {name: lat, map: [40, 60]}
  x2: {name: lon, map: [-10, 10]}
  vars:
    t2m: {method: mean_std, mean: 280, std: 5}
placements:
  rows:
    - {iteration: 0, x1: 50, x2: 0}
acquisition:
  name: std
  dims: [iteration, lat, lon]
  coords: {iteration: [0], lat: [40, 60], lon: [-10, 0, 10]}
  data: [1, 2, 3, 4, 5, 6]
coastlines:
  - [[-10, 45], [0, 50], [10, 45]]
model: {grid_size: 16, channels: [4, 8]}
`
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	b, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle error: %v", err)
	}
	if len(b.Task.XC) != 2 || !b.Task.XC[1].Gridded() || b.Task.XC[0].Gridded() {
		t.Fatalf("unexpected context sets: %+v", b.Task.XC)
	}
	if diff := cmp.Diff([]int{1, 1}, b.Metadata.ContextDims); diff != "" {
		t.Fatalf("dims mismatch (-want +got):\n%s", diff)
	}
	if b.Placements.X1Name != "lat" || b.Placements.X2Name != "lon" {
		t.Fatalf("placement names not defaulted: %+v", b.Placements)
	}
	if b.Acquisition.Size("lon") != 3 || b.Acquisition.Name != "std" {
		t.Fatalf("unexpected acquisition array: %+v", b.Acquisition)
	}
	if len(b.Coastlines) != 1 || len(b.Coastlines[0]) != 3 || b.Coastlines[0][1].Y != 50 {
		t.Fatalf("unexpected coastlines: %v", b.Coastlines)
	}
	if b.Model.GridSize != 16 || len(b.Model.Channels) != 2 {
		t.Fatalf("unexpected model spec: %+v", b.Model)
	}
}

func TestNilPlacements(t *testing.T) {
	var p *Placements
	if got := p.UpTo(3); got != nil {
		t.Fatalf("UpTo on nil table = %v, want nil", got)
	}
	if got := p.Iterations(); got != nil {
		t.Fatalf("Iterations on nil table = %v, want nil", got)
	}
}
