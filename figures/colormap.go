package figures

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// viridisStops is the 10-stop viridis ramp.
var viridisStops = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ListedColorMap interpolates linearly between a list of colors. Values
// outside [Min, Max] are clamped to the end colors.
type ListedColorMap struct {
	colors   []color.Color
	min, max float64
	alpha    float64
}

// NewListedColorMap builds a ColorMap over colors with range [0, 1].
func NewListedColorMap(colors []color.Color) *ListedColorMap {
	return &ListedColorMap{colors: colors, max: 1, alpha: 1}
}

// At implements palette.ColorMap.
func (m *ListedColorMap) At(v float64) (color.Color, error) {
	if math.IsNaN(v) {
		return nil, palette.ErrNaN
	}
	if len(m.colors) == 0 {
		return nil, fmt.Errorf("figures: empty colormap")
	}
	t := 0.0
	if m.max > m.min {
		t = (v - m.min) / (m.max - m.min)
	}
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(m.colors)-1)
	i := int(math.Floor(pos))
	if i >= len(m.colors)-1 {
		return m.withAlpha(m.colors[len(m.colors)-1]), nil
	}
	return m.withAlpha(lerp(m.colors[i], m.colors[i+1], pos-float64(i))), nil
}

func lerp(a, b color.Color, t float64) color.Color {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	mix := func(x, y uint32) uint16 {
		return uint16(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.NRGBA64{R: mix(ar, br), G: mix(ag, bg), B: mix(ab, bb), A: mix(aa, ba)}
}

func (m *ListedColorMap) withAlpha(c color.Color) color.Color {
	if m.alpha >= 1 {
		return c
	}
	r, g, b, _ := c.RGBA()
	return color.NRGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: uint16(m.alpha * math.MaxUint16)}
}

// Max implements palette.ColorMap.
func (m *ListedColorMap) Max() float64 { return m.max }

// Min implements palette.ColorMap.
func (m *ListedColorMap) Min() float64 { return m.min }

// SetMax implements palette.ColorMap.
func (m *ListedColorMap) SetMax(v float64) { m.max = v }

// SetMin implements palette.ColorMap.
func (m *ListedColorMap) SetMin(v float64) { m.min = v }

// Alpha implements palette.ColorMap.
func (m *ListedColorMap) Alpha() float64 { return m.alpha }

// SetAlpha implements palette.ColorMap.
func (m *ListedColorMap) SetAlpha(a float64) { m.alpha = a }

// Palette samples n evenly spaced colors between Min and Max.
func (m *ListedColorMap) Palette(n int) palette.Palette {
	cols := make([]color.Color, n)
	for i := range cols {
		v := m.min
		if n > 1 {
			v = m.min + (m.max-m.min)*float64(i)/float64(n-1)
		}
		cols[i], _ = m.At(v)
	}
	return listedPalette(cols)
}

type listedPalette []color.Color

func (p listedPalette) Colors() []color.Color { return p }

// Colormap returns a fresh colormap by name. Supported names are viridis,
// the ColorBrewer names (Greys, Blues, RdBu, ...), coolwarm, kindlmann and
// blackbody. A "_r" suffix reverses the map.
func Colormap(name string) (*ListedColorMap, error) {
	base, reverse := strings.CutSuffix(name, "_r")
	var cols []color.Color
	switch strings.ToLower(base) {
	case "", "viridis":
		for _, hex := range viridisStops {
			cols = append(cols, hexColor(hex))
		}
	case "coolwarm":
		cols = sampleMoreland(moreland.SmoothBlueRed())
	case "kindlmann":
		cols = sampleMoreland(moreland.Kindlmann())
	case "blackbody":
		cols = sampleMoreland(moreland.BlackBody())
	default:
		p, err := brewer.GetPalette(brewer.TypeAny, base, 9)
		if err != nil {
			return nil, fmt.Errorf("figures: unknown colormap %q: %w", name, err)
		}
		cols = p.Colors()
	}
	if reverse {
		rev := make([]color.Color, len(cols))
		for i, c := range cols {
			rev[len(cols)-1-i] = c
		}
		cols = rev
	}
	return NewListedColorMap(cols), nil
}

func sampleMoreland(cm palette.ColorMap) []color.Color {
	cm.SetMin(0)
	cm.SetMax(1)
	const n = 32
	cols := make([]color.Color, 0, n)
	for i := 0; i < n; i++ {
		c, err := cm.At(float64(i) / (n - 1))
		if err != nil {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

func hexColor(s string) color.Color {
	var r, g, b uint8
	fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b)
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// scaledColormap returns the named map over [lo, hi], widening an empty
// range so palette lookups stay defined.
func scaledColormap(name string, lo, hi float64) (*ListedColorMap, error) {
	cm, err := Colormap(name)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(lo) || math.IsNaN(hi) {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	cm.SetMin(lo)
	cm.SetMax(hi)
	return cm, nil
}

// matplotlib single-letter color codes.
var colorCodes = map[byte]color.Color{
	'k': color.Black,
	'w': color.White,
	'b': color.NRGBA{B: 255, A: 255},
	'r': color.NRGBA{R: 255, A: 255},
	'g': color.NRGBA{G: 128, A: 255},
	'y': color.NRGBA{R: 191, G: 191, A: 255},
	'c': color.NRGBA{G: 191, B: 191, A: 255},
	'm': color.NRGBA{R: 191, B: 191, A: 255},
}

// namedColor resolves a color code or name; unknown names are black.
func namedColor(s string) color.Color {
	switch strings.ToLower(s) {
	case "black", "":
		return color.Black
	case "white":
		return color.White
	case "red":
		return colorCodes['r']
	case "blue":
		return colorCodes['b']
	case "green":
		return colorCodes['g']
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		return hexColor(s)
	}
	if len(s) == 1 {
		if c, ok := colorCodes[s[0]]; ok {
			return c
		}
	}
	return color.Black
}
