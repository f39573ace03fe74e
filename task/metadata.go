package task

import (
	"fmt"
	"strings"
)

// Metadata is what the task loader knows about its sets: how many variables
// each set has and what they are called.
type Metadata struct {
	ContextDims []int
	TargetDims  []int

	ContextVarIDs [][]string
	// ContextVarIDsAndDeltaT carries the same IDs annotated with the time
	// offset of the set, e.g. "temperature_t-1".
	ContextVarIDsAndDeltaT [][]string
	TargetVarIDs           [][]string
}

// NewMetadata derives dims and time-annotated IDs from the variable IDs.
// deltaT may be nil, in which case every set has offset 0.
func NewMetadata(contextVarIDs [][]string, deltaT []int, targetVarIDs [][]string) (*Metadata, error) {
	if deltaT != nil && len(deltaT) != len(contextVarIDs) {
		return nil, fmt.Errorf("%w: %d delta_t values for %d context sets", ErrSet, len(deltaT), len(contextVarIDs))
	}
	m := &Metadata{
		ContextDims:  make([]int, len(contextVarIDs)),
		TargetDims:   make([]int, len(targetVarIDs)),
		TargetVarIDs: targetVarIDs,
	}
	m.ContextVarIDs = contextVarIDs
	m.ContextVarIDsAndDeltaT = make([][]string, len(contextVarIDs))
	for i, ids := range contextVarIDs {
		m.ContextDims[i] = len(ids)
		dt := 0
		if deltaT != nil {
			dt = deltaT[i]
		}
		verbose := make([]string, len(ids))
		for j, id := range ids {
			verbose[j] = fmt.Sprintf("%s_t%d", id, dt)
		}
		m.ContextVarIDsAndDeltaT[i] = verbose
	}
	for i, ids := range targetVarIDs {
		m.TargetDims[i] = len(ids)
	}
	return m, nil
}

// NumContextSets is the number of context sets the loader produces.
func (m *Metadata) NumContextSets() int { return len(m.ContextDims) }

// ContextChannels returns the encoding width of each listed context set:
// one density channel plus one channel per variable.
func (m *Metadata) ContextChannels(sets []int) ([]int, error) {
	out := make([]int, len(sets))
	for i, s := range sets {
		if s < 0 || s >= len(m.ContextDims) {
			return nil, fmt.Errorf("%w: context set %d out of range [0, %d)", ErrSet, s, len(m.ContextDims))
		}
		out[i] = m.ContextDims[s] + 1
	}
	return out, nil
}

// ContextIDs returns the variable IDs of context set i, annotated with the
// time offset when verbose is set.
func (m *Metadata) ContextIDs(i int, verbose bool) []string {
	src := m.ContextVarIDs
	if verbose && m.ContextVarIDsAndDeltaT != nil {
		src = m.ContextVarIDsAndDeltaT
	}
	if i < 0 || i >= len(src) {
		return nil
	}
	return src[i]
}

// FormatIDs renders a variable ID tuple the way the legend shows it,
// e.g. "('t2m',)" or "('u10', 'v10')".
func FormatIDs(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	s := strings.Join(quoted, ", ")
	if len(ids) == 1 {
		s += ","
	}
	return "(" + s + ")"
}
