package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille dot positions per character cell (2 wide x 4 tall):
//
//	col0: bits 0,1,2,6  (top to bottom)
//	col1: bits 3,4,5,7  (top to bottom)
const brailleBase = 0x2800

var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40}, // left column
	{0x08, 0x10, 0x20, 0x80}, // right column
}

// brailleGrid plots sub-cell pixels (2x4 per cell) and renders them as
// braille glyphs. ref marks reference-line pixels drawn dimmed.
type brailleGrid struct {
	cols, rows int
	cells      []uint8
	ref        []uint8
}

func newBrailleGrid(cols, rows int) *brailleGrid {
	return &brailleGrid{cols: cols, rows: rows, cells: make([]uint8, cols*rows)}
}

// pxWidth/pxHeight are the plot dimensions in braille pixels.
func (g *brailleGrid) pxWidth() int  { return g.cols * 2 }
func (g *brailleGrid) pxHeight() int { return g.rows * 4 }

func (g *brailleGrid) set(px, py int) {
	cx, cy := px/2, py/4
	if px < 0 || cy < 0 || cx >= g.cols || cy >= g.rows {
		return
	}
	g.cells[cy*g.cols+cx] |= brailleDots[px%2][py%4]
}

// markRef snapshots the current pixels as reference lines.
func (g *brailleGrid) markRef() {
	g.ref = make([]uint8, len(g.cells))
	copy(g.ref, g.cells)
}

// render colors each cell: styleFor picks the style for cells carrying
// non-reference dots, reference-only cells render dim.
func (g *brailleGrid) render(styleFor func(cy int) lipgloss.Style) string {
	var sb strings.Builder
	for cy := 0; cy < g.rows; cy++ {
		if cy > 0 {
			sb.WriteByte('\n')
		}
		// Group runs of equal style to keep escape sequences down.
		runStart := 0
		row := make([]rune, g.cols)
		active := make([]bool, g.cols)
		for cx := 0; cx < g.cols; cx++ {
			dots := g.cells[cy*g.cols+cx]
			row[cx] = rune(brailleBase + uint32(dots))
			refBits := uint8(0)
			if g.ref != nil {
				refBits = g.ref[cy*g.cols+cx]
			}
			active[cx] = dots&^refBits != 0
		}
		flush := func(end int) {
			if end == runStart {
				return
			}
			seg := string(row[runStart:end])
			if active[runStart] {
				sb.WriteString(styleFor(cy).Render(seg))
			} else {
				sb.WriteString(scopeRefStyle.Render(seg))
			}
			runStart = end
		}
		for cx := 1; cx < g.cols; cx++ {
			if active[cx] != active[cx-1] {
				flush(cx)
			}
		}
		flush(g.cols)
	}
	return sb.String()
}

func plainScope(_ int) lipgloss.Style { return scopeStyle }

// renderOscilloscope draws the left-channel waveform of the snapshot with a
// dim center reference line.
func renderOscilloscope(frames [][2]float64, cols, rows int) string {
	g := newBrailleGrid(cols, rows)
	pxW, pxH := g.pxWidth(), g.pxHeight()
	midY := float64(pxH) / 2

	// Center reference line
	centerPy := pxH / 2
	for px := 0; px < pxW; px++ {
		g.set(px, centerPy)
	}
	g.markRef()

	if len(frames) > 0 {
		for px := 0; px < pxW; px++ {
			idx := px * len(frames) / pxW
			s := clampUnit(frames[idx][0])
			py := int((1 - s) * midY)
			if py > pxH-1 {
				py = pxH - 1
			}
			g.set(px, py)
		}
	}
	return g.render(plainScope)
}

// renderVectorscope plots (L,R) pairs with a mid/side rotation:
//
//	X = (L - R) * 0.707  (side — stereo spread)
//	Y = (L + R) * 0.707  (mid — mono content)
//
// Mono content draws a vertical line; stereo content spreads wider.
func renderVectorscope(frames [][2]float64, cols, rows int) string {
	g := newBrailleGrid(cols, rows)
	pxW, pxH := g.pxWidth(), g.pxHeight()
	midX, midY := float64(pxW)/2, float64(pxH)/2
	radius := min(midX, midY)

	// Crosshair reference lines
	for py := 0; py < pxH; py++ {
		g.set(pxW/2, py)
	}
	for px := 0; px < pxW; px++ {
		g.set(px, pxH/2)
	}
	g.markRef()

	for _, f := range frames {
		l, r := clampUnit(f[0]), clampUnit(f[1])
		side := (l - r) * 0.707
		mid := (l + r) * 0.707
		px := int(midX + side*radius)
		py := int(midY - mid*radius)
		if px > pxW-1 {
			px = pxW - 1
		}
		if py > pxH-1 {
			py = pxH - 1
		}
		if py < 0 {
			py = 0
		}
		g.set(px, py)
	}
	return g.render(plainScope)
}

// renderSpectroscope draws one bar per column from pre-computed levels in
// [0,1], growing upward, with a green/yellow/red gradient by height.
func renderSpectroscope(levels []float64, cols, rows int) string {
	g := newBrailleGrid(cols, rows)
	pxH := g.pxHeight()

	for col := 0; col < cols && col < len(levels); col++ {
		h := int(clampUnit(levels[col]) * float64(pxH))
		if h > pxH {
			h = pxH
		}
		for py := pxH - h; py < pxH; py++ {
			// Fill both dot columns for a solid bar.
			g.set(col*2, py)
			g.set(col*2+1, py)
		}
	}

	return g.render(func(cy int) lipgloss.Style {
		frac := float64(cy) / float64(rows)
		switch {
		case frac < 0.33:
			return specHighStyle
		case frac < 0.66:
			return specMidStyle
		default:
			return specLowStyle
		}
	})
}

func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
