package figures

import (
	"image/color"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// polygonGlyph outlines a polygon given by unit offsets scaled by the
// glyph radius.
type polygonGlyph []vg.Point

// DrawGlyph implements draw.GlyphDrawer.
func (g polygonGlyph) DrawGlyph(c *draw.Canvas, sty draw.GlyphStyle, pt vg.Point) {
	c.SetLineStyle(draw.LineStyle{Color: sty.Color, Width: vg.Points(0.5)})
	var p vg.Path
	for i, o := range g {
		v := vg.Point{X: pt.X + o.X*sty.Radius, Y: pt.Y + o.Y*sty.Radius}
		if i == 0 {
			p.Move(v)
		} else {
			p.Line(v)
		}
	}
	p.Close()
	c.Stroke(p)
}

var (
	downTriangleGlyph = polygonGlyph{{X: -1, Y: 0.6}, {X: 1, Y: 0.6}, {X: 0, Y: -1.1}}
	upTriangleGlyph   = polygonGlyph{{X: -1, Y: -0.6}, {X: 1, Y: -0.6}, {X: 0, Y: 1.1}}
	squareGlyph       = polygonGlyph{{X: -0.9, Y: -0.9}, {X: 0.9, Y: -0.9}, {X: 0.9, Y: 0.9}, {X: -0.9, Y: 0.9}}
	diamondGlyph      = polygonGlyph{{X: 0, Y: -1.1}, {X: 0.8, Y: 0}, {X: 0, Y: 1.1}, {X: -0.8, Y: 0}}
)

// glyphFor maps a single-character marker code to an unfilled glyph
// drawer. Unknown codes draw a ring.
func glyphFor(code byte) draw.GlyphDrawer {
	switch code {
	case 'v':
		return downTriangleGlyph
	case '^':
		return upTriangleGlyph
	case 's':
		return squareGlyph
	case 'D', 'd':
		return diamondGlyph
	case 'x':
		return draw.CrossGlyph{}
	case '+':
		return draw.PlusGlyph{}
	default:
		return draw.RingGlyph{}
	}
}

// cycle returns the i-th character of codes, wrapping around.
func cycle(codes string, i int) byte {
	if codes == "" {
		return 0
	}
	return codes[i%len(codes)]
}

// markerStyle is the glyph of set i under the marker and color cycles.
func markerStyle(markers, colors string, i int, radius vg.Length) draw.GlyphStyle {
	var c color.Color = color.Black
	if code := cycle(colors, i); code != 0 {
		c = namedColor(string(code))
	}
	return draw.GlyphStyle{Color: c, Radius: radius, Shape: glyphFor(cycle(markers, i))}
}
