package ui

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Cell is one placed grapheme cluster in a frame.
type Cell struct {
	Str   string
	Width int
	Style Style
}

// Frame is the composed content of one render cycle. It is ephemeral;
// the writer keeps the previous frame only to skip unchanged rows.
type Frame struct {
	Width  int
	Height int
	Rows   [][]Cell

	CursorX       int
	CursorY       int
	CursorVisible bool
}

// NewFrame creates an empty frame for the given geometry.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Rows:   make([][]Cell, height),
	}
}

func rowWidth(row []Cell) int {
	w := 0
	for _, c := range row {
		w += c.Width
	}
	return w
}

// Print writes a string at (x, y) with the given style, clipping at the
// frame edge, and returns the column after the last written cell. A wide
// cluster that would straddle the edge is dropped. Printing past the
// current end of the row pads the gap with default-styled blanks; rows
// are append-only within a frame.
func (f *Frame) Print(x, y int, msg string, style Style) int {
	if y < 0 || y >= f.Height {
		return x
	}
	for w := rowWidth(f.Rows[y]); w < x && w < f.Width; w++ {
		f.Rows[y] = append(f.Rows[y], Cell{Str: " ", Width: 1})
	}
	g := uniseg.NewGraphemes(msg)
	for g.Next() {
		s := g.Str()
		w := runewidth.StringWidth(s)
		if w <= 0 {
			// attach zero-width cluster to the previous cell
			if n := len(f.Rows[y]); n > 0 {
				f.Rows[y][n-1].Str += s
			}
			continue
		}
		if x+w > f.Width {
			break
		}
		f.Rows[y] = append(f.Rows[y], Cell{Str: s, Width: w, Style: style})
		x += w
	}
	return x
}

// Fill pads the row with styled spaces out to the frame edge.
func (f *Frame) Fill(x, y int, style Style) {
	if y < 0 || y >= f.Height {
		return
	}
	for w := rowWidth(f.Rows[y]); w < f.Width; w++ {
		f.Rows[y] = append(f.Rows[y], Cell{Str: " ", Width: 1, Style: style})
	}
}

// SetCursor records where the terminal cursor belongs for this frame.
func (f *Frame) SetCursor(x, y int) {
	f.CursorX = x
	f.CursorY = y
	f.CursorVisible = true
}

func rowsEqual(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Writer puts composed frames on a Screen. Each call is one synchronized
// update: rows that did not change since the previous frame are skipped,
// everything else is rewritten in full before a single Show.
type Writer struct {
	screen Screen
	prev   *Frame
}

// NewWriter creates a Writer for the screen.
func NewWriter(screen Screen) *Writer {
	return &Writer{screen: screen}
}

// Write renders the frame. A geometry change invalidates the previous
// frame wholesale, so a resize never leaves stale cells behind.
func (w *Writer) Write(f *Frame) {
	if f.Width <= 0 || f.Height <= 0 {
		return
	}

	full := w.prev == nil || w.prev.Width != f.Width || w.prev.Height != f.Height
	if full {
		w.screen.Clear()
	}

	w.screen.HideCursor()
	for y := 0; y < f.Height; y++ {
		if !full && rowsEqual(w.prev.Rows[y], f.Rows[y]) {
			continue
		}
		x := 0
		for _, c := range f.Rows[y] {
			w.screen.SetCell(x, y, c.Str, c.Style)
			x += c.Width
		}
		for ; x < f.Width; x++ {
			w.screen.SetCell(x, y, " ", Style{})
		}
	}
	if f.CursorVisible {
		w.screen.ShowCursor(f.CursorX, f.CursorY)
	}
	w.screen.Show()
	w.prev = f
}

// Reset forgets the previous frame, forcing the next Write to repaint
// everything.
func (w *Writer) Reset() {
	w.prev = nil
}
