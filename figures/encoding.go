package figures

import (
	"fmt"

	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/sensorviz/model"
	"github.com/Noofbiz/sensorviz/task"
	"github.com/Noofbiz/sensorviz/tensor"
)

// EncodingOptions configures ContextEncoding.
type EncodingOptions struct {
	// BatchIndex selects the batch slice of the encoding.
	BatchIndex int
	// ContextSets to draw, in row order. Nil draws every set.
	ContextSets []int
	// LandIndex, when set, is the encoding channel whose 0.5 isoline is
	// drawn over every cell.
	LandIndex *int
	// Colorbar adds a colorbar to every cell.
	Colorbar bool
	// CLim fixes the color range of every cell.
	CLim     *[2]float64
	Colormap string
	// VerboseTitles titles value channels with their time-annotated IDs.
	VerboseTitles bool
	// Titles overrides the cell titles, one per drawn channel in drawing
	// order.
	Titles []string
	// Size is the side of one cell in inches.
	Size float64
}

// DefaultEncodingOptions draws every set with per-cell colorbars.
func DefaultEncodingOptions() EncodingOptions {
	return EncodingOptions{
		Colorbar:      true,
		Colormap:      "viridis",
		VerboseTitles: true,
		Size:          3,
	}
}

// Layout places encoding channels into a grid: one row per selected
// context set, one column per channel of the widest set.
type Layout struct {
	Rows, Cols int
	// Sets are the selected context sets, one per row.
	Sets []int
	// Widths are the channel counts of each row (variables + density).
	Widths []int
	// Channels[r][c] is the encoding channel drawn at row r, column c.
	Channels [][]int
}

// EncodingLayout resolves a set selection against the loader metadata.
// channels is the channel count of the encoding: if it matches the
// selected sets the channels are read in request order, otherwise if it
// covers every context set they are read at the loader's offsets. Zero
// means the former.
func EncodingLayout(meta *task.Metadata, sets []int, channels int) (*Layout, error) {
	if sets == nil {
		sets = make([]int, meta.NumContextSets())
		for i := range sets {
			sets[i] = i
		}
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no context sets selected", ErrIndexOutOfRange)
	}
	widths, err := meta.ContextChannels(sets)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexOutOfRange, err)
	}

	all := make([]int, meta.NumContextSets())
	for i := range all {
		all[i] = i
	}
	allWidths, _ := meta.ContextChannels(all)
	fullOffsets := make([]int, len(allWidths))
	total := 0
	for i, w := range allWidths {
		fullOffsets[i] = total
		total += w
	}
	selected := 0
	for _, w := range widths {
		selected += w
	}

	useFull := false
	switch channels {
	case 0, selected:
	case total:
		useFull = true
	default:
		return nil, fmt.Errorf("%w: encoding has %d channels, selected sets need %d (all sets %d)",
			ErrChannelMismatch, channels, selected, total)
	}

	l := &Layout{Rows: len(sets), Sets: append([]int(nil), sets...), Widths: widths}
	next := 0
	for r, s := range sets {
		l.Cols = max(l.Cols, widths[r])
		start := next
		if useFull {
			start = fullOffsets[s]
		}
		row := make([]int, widths[r])
		for c := range row {
			row[c] = start + c
		}
		l.Channels = append(l.Channels, row)
		next += widths[r]
	}
	return l, nil
}

// ContextEncoding draws the channels of an encoding tensor of shape
// [batch, channel, row, col], one row of cells per context set.
func ContextEncoding(enc *tensor.Array, meta *task.Metadata, opts EncodingOptions) (*Figure, error) {
	if enc.Rank() != 4 {
		return nil, fmt.Errorf("%w: encoding must be [batch, channel, row, col], got %v", tensor.ErrShape, enc.Shape)
	}
	if opts.BatchIndex < 0 || opts.BatchIndex >= enc.Shape[0] {
		return nil, fmt.Errorf("%w: batch %d of %d", ErrIndexOutOfRange, opts.BatchIndex, enc.Shape[0])
	}
	batch, err := enc.Index(opts.BatchIndex)
	if err != nil {
		return nil, err
	}
	nch := batch.Shape[0]
	layout, err := EncodingLayout(meta, opts.ContextSets, nch)
	if err != nil {
		return nil, err
	}
	var land *tensor.Array
	if opts.LandIndex != nil {
		if *opts.LandIndex < 0 || *opts.LandIndex >= nch {
			return nil, fmt.Errorf("%w: land channel %d of %d", ErrIndexOutOfRange, *opts.LandIndex, nch)
		}
		if land, err = batch.Index(*opts.LandIndex); err != nil {
			return nil, err
		}
	}
	size := opts.Size
	if size <= 0 {
		size = 3
	}
	cmap := opts.Colormap
	if cmap == "" {
		cmap = "viridis"
	}

	fig := NewFigure(layout.Rows, layout.Cols, size)
	drawn := 0
	for r, set := range layout.Sets {
		ids := meta.ContextIDs(set, opts.VerboseTitles)
		for c := 0; c < layout.Cols; c++ {
			ax := fig.At(r, c)
			if c >= layout.Widths[r] {
				ax.Hidden = true
				continue
			}
			ch, err := batch.Index(layout.Channels[r][c])
			if err != nil {
				return nil, err
			}
			cm, err := imshow(ax, ch, cmap, opts.CLim)
			if err != nil {
				return nil, err
			}
			p := ax.Plot
			switch {
			case drawn < len(opts.Titles):
				p.Title.Text = opts.Titles[drawn]
			case c == 0:
				p.Title.Text = fmt.Sprintf("Density %d", set)
			case c-1 < len(ids):
				p.Title.Text = ids[c-1]
			}
			if c == 0 {
				p.Y.Label.Text = fmt.Sprintf("Context set %d", set)
			}
			if opts.Colorbar {
				ax.Colorbar = &Colorbar{Map: cm}
			}
			if land != nil {
				if err := contour(ax, land, 0.5); err != nil {
					return nil, err
				}
			}
			hideTicks(p)
			p.X.LineStyle.Width = vg.Points(1)
			p.Y.LineStyle.Width = vg.Points(1)
			drawn++
		}
	}
	return fig, nil
}

// ContextEncodingFromModel computes the encoding of t with m, converts it
// with conv and draws it.
func ContextEncodingFromModel[T any](m model.Encoder[T], t *task.Task, conv tensor.Converter[T], meta *task.Metadata, opts EncodingOptions) (*Figure, error) {
	raw, err := m.EncodingTensor(t)
	if err != nil {
		return nil, fmt.Errorf("computing encoding: %w", err)
	}
	enc, err := conv(raw)
	if err != nil {
		return nil, fmt.Errorf("converting encoding: %w", err)
	}
	return ContextEncoding(enc, meta, opts)
}
