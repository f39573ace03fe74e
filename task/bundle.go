package task

import (
	"fmt"
	"os"

	"github.com/ctessum/geom"
	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/sensorviz/labeled"
	"github.com/Noofbiz/sensorviz/processor"
	"github.com/Noofbiz/sensorviz/tensor"
)

// Bundle is everything the command line tool needs to draw a task: the
// task, the loader metadata, the processor parameters and, optionally, the
// outputs of a placement run.
type Bundle struct {
	Task        *Task
	Metadata    *Metadata
	Processor   *processor.DataProcessor
	Placements  *Placements
	Acquisition *labeled.Array
	Encoding    *tensor.Array

	// Coastlines in (lon, lat) for map figures.
	Coastlines []geom.LineString
	// Model sizes the reference ConvNP built when no encoding is given.
	Model ModelSpec
}

// ModelSpec is the architecture section of a bundle.
type ModelSpec struct {
	GridSize int   `yaml:"grid_size"`
	Channels []int `yaml:"channels"`
	Seed     int64 `yaml:"seed"`
}

type arraySpec struct {
	Shape []int     `yaml:"shape"`
	Data  []float64 `yaml:"data"`
}

func (s *arraySpec) array() (*tensor.Array, error) {
	if s == nil {
		return nil, nil
	}
	return tensor.FromSlice(s.Data, s.Shape...)
}

type setSpec struct {
	X    *arraySpec  `yaml:"x"`
	Grid *GridCoords `yaml:"grid"`
	Y    *arraySpec  `yaml:"y"`
}

type labeledSpec struct {
	Name    string               `yaml:"name"`
	Dims    []string             `yaml:"dims"`
	Coords  map[string][]float64 `yaml:"coords"`
	Scalars map[string]float64   `yaml:"scalars"`
	Data    []float64            `yaml:"data"`
}

type bundleSpec struct {
	Time    string    `yaml:"time"`
	Context []setSpec `yaml:"context"`
	Target  []setSpec `yaml:"target"`

	Loader struct {
		ContextVarIDs [][]string `yaml:"context_var_ids"`
		ContextDeltaT []int      `yaml:"context_delta_t"`
		ContextDims   []int      `yaml:"context_dims"`
		TargetVarIDs  [][]string `yaml:"target_var_ids"`
	} `yaml:"loader"`

	Processor   processor.Params `yaml:"processor"`
	Placements  *Placements      `yaml:"placements"`
	Acquisition *labeledSpec     `yaml:"acquisition"`
	Encoding    *arraySpec       `yaml:"encoding"`
	Coastlines  [][][2]float64   `yaml:"coastlines"`
	Model       ModelSpec        `yaml:"model"`
}

// LoadBundle reads a YAML (or JSON) bundle file.
func LoadBundle(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", path, err)
	}
	return ParseBundle(raw)
}

// ParseBundle decodes a bundle from memory.
func ParseBundle(raw []byte) (*Bundle, error) {
	var spec bundleSpec
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}

	t := &Task{Time: spec.Time}
	for i, s := range spec.Context {
		x, y, err := s.sets()
		if err != nil {
			return nil, fmt.Errorf("context set %d: %w", i, err)
		}
		t.XC = append(t.XC, x)
		t.YC = append(t.YC, y)
	}
	for i, s := range spec.Target {
		x, y, err := s.sets()
		if err != nil {
			return nil, fmt.Errorf("target set %d: %w", i, err)
		}
		t.XT = append(t.XT, x)
		if y.Dense != nil {
			t.YT = append(t.YT, y)
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	meta, err := NewMetadata(spec.Loader.ContextVarIDs, spec.Loader.ContextDeltaT, spec.Loader.TargetVarIDs)
	if err != nil {
		return nil, err
	}
	if spec.Loader.ContextDims != nil {
		if len(spec.Loader.ContextDims) != len(meta.ContextDims) {
			return nil, fmt.Errorf("%w: %d context dims for %d context sets", ErrSet, len(spec.Loader.ContextDims), len(meta.ContextDims))
		}
		meta.ContextDims = spec.Loader.ContextDims
	}

	proc, err := processor.New(spec.Processor)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Task: t, Metadata: meta, Processor: proc, Placements: spec.Placements, Model: spec.Model}
	for _, line := range spec.Coastlines {
		ls := make(geom.LineString, len(line))
		for i, pt := range line {
			ls[i] = geom.Point{X: pt[0], Y: pt[1]}
		}
		b.Coastlines = append(b.Coastlines, ls)
	}
	if b.Placements != nil {
		names := proc.RawSpatialCoordNames()
		if b.Placements.X1Name == "" {
			b.Placements.X1Name = names[0]
		}
		if b.Placements.X2Name == "" {
			b.Placements.X2Name = names[1]
		}
	}
	if spec.Encoding != nil {
		if b.Encoding, err = spec.Encoding.array(); err != nil {
			return nil, fmt.Errorf("encoding: %w", err)
		}
	}
	if a := spec.Acquisition; a != nil {
		shape := make([]int, len(a.Dims))
		for i, d := range a.Dims {
			shape[i] = len(a.Coords[d])
		}
		data, err := tensor.FromSlice(a.Data, shape...)
		if err != nil {
			return nil, fmt.Errorf("acquisition (every dim needs coords): %w", err)
		}
		if b.Acquisition, err = labeled.New(a.Name, a.Dims, a.Coords, data); err != nil {
			return nil, fmt.Errorf("acquisition: %w", err)
		}
		for k, v := range a.Scalars {
			b.Acquisition.Scalars[k] = v
		}
	}
	return b, nil
}

func (s setSpec) sets() (Set, Set, error) {
	var x Set
	switch {
	case s.Grid != nil && s.X != nil:
		return Set{}, Set{}, fmt.Errorf("%w: both x and grid given", ErrSet)
	case s.Grid != nil:
		x = Set{Grid: s.Grid}
	case s.X != nil:
		a, err := s.X.array()
		if err != nil {
			return Set{}, Set{}, err
		}
		x = DenseSet(a)
	default:
		return Set{}, Set{}, fmt.Errorf("%w: no coordinates", ErrSet)
	}
	y, err := s.Y.array()
	if err != nil {
		return Set{}, Set{}, err
	}
	return x, Set{Dense: y}, nil
}
