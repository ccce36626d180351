// Package layout turns rendered item strings into visual rows: tab
// expansion, Unicode-width-aware soft wrapping, highlight placement, and
// the horizontal scroll-through that chases off-screen highlights on the
// selected entry.
package layout

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Config tunes row composition.
type Config struct {
	// TabStop is the tab expansion interval in display columns.
	TabStop int

	// LeftPad and RightPad bound the window inside which scroll-through
	// places the next highlight, in cells from each edge.
	LeftPad  int
	RightPad int
}

// DefaultTabStop is used when Config.TabStop is zero.
const DefaultTabStop = 4

// Run is a stretch of cells sharing one style class.
type Run struct {
	Text    string
	Matched bool
}

// Row is one visual row of an item.
type Row struct {
	Runs []Run
}

// Width returns the display width of the row in cells.
func (r Row) Width() int {
	w := 0
	for _, run := range r.Runs {
		w += runewidth.StringWidth(run.Text)
	}
	return w
}

// Layout composes rows. It carries the scroll-through state between
// frames; everything else is stateless.
type Layout struct {
	cfg Config

	scrollItem  uint32
	scrollValid bool
	offset      int  // horizontal offset of the selected entry, in cells
	seen        int  // highest highlight column already brought into view
	pending     bool // highlights remain beyond the seen mark
}

// New creates a Layout.
func New(cfg Config) *Layout {
	if cfg.TabStop <= 0 {
		cfg.TabStop = DefaultTabStop
	}
	return &Layout{cfg: cfg}
}

// gcell is one grapheme cluster placed in the grid. Zero-width clusters
// are folded into the preceding cell during decoding, so every gcell has
// width >= 1.
type gcell struct {
	str   string
	width int
	hl    bool
}

// decode splits a display string into logical lines of cells. Highlight
// byte offsets refer to the original string, so they are resolved here,
// before tab expansion changes column arithmetic.
func (l *Layout) decode(display string, highlights []int) [][]gcell {
	lines := [][]gcell{nil}
	cur := 0

	hl := make(map[int]bool, len(highlights))
	for _, off := range highlights {
		hl[off] = true
	}

	isHl := func(start, end int) bool {
		for b := start; b < end; b++ {
			if hl[b] {
				return true
			}
		}
		return false
	}

	col := 0
	g := uniseg.NewGraphemes(display)
	for g.Next() {
		start, end := g.Positions()
		s := g.Str()
		switch s {
		case "\n":
			lines = append(lines, nil)
			cur++
			col = 0
			continue
		case "\t":
			n := l.cfg.TabStop - col%l.cfg.TabStop
			marked := isHl(start, end)
			for i := 0; i < n; i++ {
				lines[cur] = append(lines[cur], gcell{str: " ", width: 1, hl: marked})
			}
			col += n
			continue
		case "\r":
			continue
		}

		if isControl(s) {
			continue
		}
		w := runewidth.StringWidth(s)
		if w <= 0 {
			// zero-width cluster attaches to the prior cell
			if n := len(lines[cur]); n > 0 {
				lines[cur][n-1].str += s
			}
			continue
		}
		lines[cur] = append(lines[cur], gcell{str: s, width: w, hl: isHl(start, end)})
		col += w
	}
	return lines
}

func isControl(s string) bool {
	if len(s) != 1 {
		return false
	}
	return s[0] < 0x20 || s[0] == 0x7f
}

// Lines lays out one item. The item index and selected flag drive the
// scroll-through state; width is the available columns.
func (l *Layout) Lines(display string, highlights []int, width int, selected bool, item uint32) []Row {
	if width <= 0 {
		return nil
	}

	logical := l.decode(display, highlights)
	if selected {
		l.pending = false
	}
	var rows []Row
	for _, line := range logical {
		if selected && l.needsScroll(line, width) {
			rows = append(rows, l.scrolled(line, width, item))
			continue
		}
		rows = append(rows, wrap(line, width)...)
	}
	return rows
}

// ResetScroll drops the scroll-through state; called when the selection
// moves to a different entry.
func (l *Layout) ResetScroll() {
	l.scrollValid = false
	l.offset = 0
	l.seen = -1
	l.pending = false
}

// ScrollPending reports whether the selected entry still has highlights
// that have not been brought into view; the engine keeps composing
// frames until they have all had their turn.
func (l *Layout) ScrollPending() bool {
	return l.pending
}

// needsScroll reports whether the line has a highlight that cannot be
// shown without a horizontal offset.
func (l *Layout) needsScroll(line []gcell, width int) bool {
	col := 0
	for _, c := range line {
		if c.hl && col+c.width > width {
			return true
		}
		col += c.width
	}
	return false
}

// scrolled produces a single row for an over-wide highlighted line,
// advancing the offset so the earliest highlight not yet brought into
// view lands inside the padding window.
func (l *Layout) scrolled(line []gcell, width int, item uint32) Row {
	if !l.scrollValid || l.scrollItem != item {
		l.scrollItem = item
		l.scrollValid = true
		l.offset = 0
		l.seen = -1
	}

	total := 0
	cols := make([]int, len(line))
	next := -1
	last := -1
	for i, c := range line {
		cols[i] = total
		if c.hl {
			if total > l.seen && next < 0 {
				next = total
			}
			last = total
		}
		total += c.width
	}

	lo := l.offset + l.cfg.LeftPad
	hi := l.offset + width - l.cfg.RightPad
	if next >= 0 {
		if next >= lo && next < hi {
			l.seen = next
		} else {
			off := next - l.cfg.LeftPad
			if off > total-width {
				off = total - width
			}
			if off < 0 {
				off = 0
			}
			l.offset = off
			l.seen = next
		}
	}
	l.pending = l.pending || last > l.seen

	var out []gcell
	for i, c := range line {
		if cols[i] < l.offset {
			continue
		}
		if cols[i]+c.width > l.offset+width {
			break
		}
		out = append(out, c)
	}
	return toRow(out)
}

// wrap soft-wraps a logical line at cell boundaries; a double-width cell
// never straddles two rows.
func wrap(line []gcell, width int) []Row {
	if len(line) == 0 {
		return []Row{{}}
	}
	var rows []Row
	var cur []gcell
	col := 0
	for _, c := range line {
		if col+c.width > width {
			rows = append(rows, toRow(cur))
			cur = nil
			col = 0
		}
		cur = append(cur, c)
		col += c.width
	}
	rows = append(rows, toRow(cur))
	return rows
}

// toRow groups consecutive cells with identical highlighting into runs.
func toRow(cells []gcell) Row {
	var row Row
	for _, c := range cells {
		n := len(row.Runs)
		if n > 0 && row.Runs[n-1].Matched == c.hl {
			row.Runs[n-1].Text += c.str
			continue
		}
		row.Runs = append(row.Runs, Run{Text: c.str, Matched: c.hl})
	}
	return row
}
