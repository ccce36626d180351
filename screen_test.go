package winnow

import (
	"strings"
	"sync"

	"github.com/peco/winnow/ui"
)

// dummyScreen implements ui.Screen against an in-memory cell grid. Show
// publishes the composed cells so tests observe only complete frames,
// the same way a terminal would.
type dummyScreen struct {
	mutex   sync.Mutex
	width   int
	height  int
	pending map[[2]int]string
	visible map[[2]int]string
	inits   int
	closes  int
	cleared bool
}

func newDummyScreen(width, height int) *dummyScreen {
	return &dummyScreen{
		width:   width,
		height:  height,
		pending: map[[2]int]string{},
		visible: map[[2]int]string{},
	}
}

func (d *dummyScreen) Init() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.inits++
	return nil
}

func (d *dummyScreen) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.closes++
	return nil
}

func (d *dummyScreen) Size() (int, int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.width, d.height
}

func (d *dummyScreen) Resize(w, h int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.width = w
	d.height = h
}

func (d *dummyScreen) SetCell(x, y int, cluster string, _ ui.Style) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.pending[[2]int{x, y}] = cluster
}

func (d *dummyScreen) ShowCursor(int, int) {}
func (d *dummyScreen) HideCursor()         {}

func (d *dummyScreen) Show() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	for k, v := range d.pending {
		d.visible[k] = v
	}
}

func (d *dummyScreen) Clear() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.pending = map[[2]int]string{}
	d.visible = map[[2]int]string{}
	d.cleared = true
}

// Row returns the visible content of one row, trailing blanks trimmed.
func (d *dummyScreen) Row(y int) string {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	var sb strings.Builder
	for x := 0; x < d.width; x++ {
		if s, ok := d.visible[[2]int{x, y}]; ok {
			sb.WriteString(s)
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// Contents returns all visible rows joined with newlines.
func (d *dummyScreen) Contents() string {
	d.mutex.Lock()
	h := d.height
	d.mutex.Unlock()
	rows := make([]string, 0, h)
	for y := 0; y < h; y++ {
		rows = append(rows, d.Row(y))
	}
	return strings.Join(rows, "\n")
}

func (d *dummyScreen) Closes() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.closes
}
