// Package task describes the request-scoped inputs of the renderers: the
// context and target sets of one task, the loader metadata that names their
// variables, and the table of proposed sensor placements.
package task

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/sensorviz/tensor"
)

// ErrSet is returned for malformed context or target sets.
var ErrSet = errors.New("task: invalid set")

// GridCoords marks a gridded set. It holds the 1-D coordinate axes of the
// grid instead of per-observation coordinates, so it cannot be scattered.
type GridCoords struct {
	X1 []float64 `yaml:"x1"`
	X2 []float64 `yaml:"x2"`
}

// Set is one context or target set's coordinates or values. Exactly one of
// Dense and Grid is non-nil for a coordinate set; value sets are always
// Dense.
type Set struct {
	Dense *tensor.Array
	Grid  *GridCoords
}

// DenseSet wraps an array as a Set.
func DenseSet(a *tensor.Array) Set { return Set{Dense: a} }

// GridSet wraps grid axes as a Set.
func GridSet(x1, x2 []float64) Set { return Set{Grid: &GridCoords{X1: x1, X2: x2}} }

// Gridded reports whether the set is on a grid.
func (s Set) Gridded() bool { return s.Grid != nil }

// Task is a single model input/output bundle. The order of the sets follows
// the order in the loader metadata.
type Task struct {
	// Time is an informational timestamp label.
	Time string

	XC []Set // context coordinates
	YC []Set // context values
	XT []Set // target coordinates
	YT []Set // target values
}

// ScatterCoords returns the [2, N] coordinates of a non-gridded set,
// dropping the batch axis (first batch) of [B, 2, N] inputs.
func ScatterCoords(s Set) (*tensor.Array, error) {
	if s.Gridded() {
		return nil, fmt.Errorf("%w: set is gridded", ErrSet)
	}
	x := s.Dense
	if x == nil {
		return nil, fmt.Errorf("%w: set has no coordinates", ErrSet)
	}
	if x.Rank() == 3 {
		var err error
		if x, err = x.Index(0); err != nil {
			return nil, err
		}
	}
	if x.Rank() != 2 || x.Shape[0] != 2 {
		return nil, fmt.Errorf("%w: want coordinates of shape (2, N), got %v", ErrSet, x.Shape)
	}
	return x, nil
}

// Validate checks that the context and target lists are paired.
func (t *Task) Validate() error {
	if len(t.XC) != len(t.YC) {
		return fmt.Errorf("%w: %d context coordinate sets but %d value sets", ErrSet, len(t.XC), len(t.YC))
	}
	if len(t.YT) > 0 && len(t.XT) != len(t.YT) {
		return fmt.Errorf("%w: %d target coordinate sets but %d value sets", ErrSet, len(t.XT), len(t.YT))
	}
	for i, s := range t.XC {
		if s.Dense == nil && s.Grid == nil {
			return fmt.Errorf("%w: context set %d has no coordinates", ErrSet, i)
		}
	}
	return nil
}
