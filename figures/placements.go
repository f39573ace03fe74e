package figures

import (
	"github.com/Noofbiz/sensorviz/processor"
	"github.com/Noofbiz/sensorviz/task"
)

// NewMap returns a single map panel under proj. Coastlines in opts are not
// drawn yet so they can go on top of later layers.
func NewMap(proj *Projection, opts MapOptions) (*Figure, error) {
	size := opts.Size
	if size <= 0 {
		size = 3
	}
	fig := NewFigure(1, 1, size)
	if err := setupMap(fig.Axes[0], proj, opts.Extent, opts.Gridlines); err != nil {
		return nil, err
	}
	return fig, nil
}

// Placements draws proposed sensor locations in red over the off-grid
// context of t on a single map.
func Placements(t *task.Task, cands *task.Placements, proc *processor.DataProcessor, proj *Projection, opts MapOptions) (*Figure, error) {
	fig, err := NewMap(proj, opts)
	if err != nil {
		return nil, err
	}
	ax := fig.Axes[0]
	if cands != nil {
		if err := addCandidates(ax, cands.Rows, opts.Scatter); err != nil {
			return nil, err
		}
	}
	overlay := DefaultOverlayOptions()
	overlay.Processor = proc
	overlay.Scatter = opts.Scatter
	if err := OffgridContext([]*Axes{ax}, t, overlay); err != nil {
		return nil, err
	}
	ax.AddCoastlines(opts.Coastlines)
	ax.holdExtent()
	return fig, nil
}
