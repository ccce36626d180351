package ui

import (
	"sync"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
)

// Screen is the draw-side contract against the terminal. It exists so
// the engine and the frame writer can be exercised against a fake in
// tests; event delivery is a separate concern (see the event source in
// the root package).
type Screen interface {
	// Init acquires the terminal: raw mode plus the alternate screen.
	Init() error

	// Close releases the terminal. It must be safe to call on every
	// exit path, including after a panic.
	Close() error

	// Size returns the terminal dimensions in cells.
	Size() (int, int)

	// SetCell places one grapheme cluster at the given cell. Wide
	// clusters occupy this cell and the one to its right.
	SetCell(x, y int, cluster string, style Style)

	// ShowCursor positions and shows the terminal cursor.
	ShowCursor(x, y int)

	// HideCursor hides the terminal cursor.
	HideCursor()

	// Show flushes the composed content to the terminal in one
	// synchronized update.
	Show()

	// Clear wipes the composed content.
	Clear()
}

// Tcell is the production Screen backed by gdamore/tcell. Raw mode, the
// alternate screen, bracketed paste and synchronized output are all
// handled by the library.
type Tcell struct {
	mutex  sync.Mutex
	dev    string
	screen tcell.Screen
	evCh   chan tcell.Event
	quitCh chan struct{}
}

// NewTcell creates an uninitialized Tcell screen over the process's
// standard streams.
func NewTcell() *Tcell {
	return &Tcell{}
}

// NewTcellDev creates a Tcell screen over the named terminal device
// (typically /dev/tty), leaving stdin free to carry data.
func NewTcellDev(dev string) *Tcell {
	return &Tcell{dev: dev}
}

// Init implements Screen.
func (t *Tcell) Init() error {
	var s tcell.Screen
	var err error
	if t.dev != "" {
		s, err = newScreenFromDev(t.dev)
	} else {
		s, err = tcell.NewScreen()
	}
	if err != nil {
		return errors.Wrap(err, "failed to create tcell screen")
	}
	if err := s.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize tcell screen")
	}
	s.EnablePaste()

	t.mutex.Lock()
	t.screen = s
	t.evCh = make(chan tcell.Event, 16)
	t.quitCh = make(chan struct{})
	t.mutex.Unlock()

	go s.ChannelEvents(t.evCh, t.quitCh)
	return nil
}

// Close implements Screen. Fini restores the terminal even when called
// while tcell is mid-update.
func (t *Tcell) Close() error {
	if pdebug.Enabled {
		pdebug.Printf("Tcell: Close")
	}
	t.mutex.Lock()
	s := t.screen
	quit := t.quitCh
	t.screen = nil
	t.quitCh = nil
	t.mutex.Unlock()

	if quit != nil {
		close(quit)
	}
	if s != nil {
		s.Fini()
	}
	return nil
}

// EventChannel returns the channel tcell delivers terminal events on.
// The channel is closed when the screen is closed.
func (t *Tcell) EventChannel() <-chan tcell.Event {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.evCh
}

// PostEvent injects an event into the terminal event stream; used by
// tests and by Resize propagation.
func (t *Tcell) PostEvent(ev tcell.Event) error {
	t.mutex.Lock()
	s := t.screen
	t.mutex.Unlock()
	if s == nil {
		return errors.New("screen is closed")
	}
	return errors.Wrap(s.PostEvent(ev), "failed to post event")
}

func (t *Tcell) tcellScreen() tcell.Screen {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.screen
}

// Size implements Screen.
func (t *Tcell) Size() (int, int) {
	s := t.tcellScreen()
	if s == nil {
		return 0, 0
	}
	return s.Size()
}

// SetCell implements Screen.
func (t *Tcell) SetCell(x, y int, cluster string, style Style) {
	s := t.tcellScreen()
	if s == nil {
		return
	}
	mainc, size := utf8.DecodeRuneInString(cluster)
	if mainc == utf8.RuneError {
		mainc = '?'
	}
	var combc []rune
	for _, r := range cluster[size:] {
		combc = append(combc, r)
	}
	s.SetContent(x, y, mainc, combc, style.tcellStyle())
}

// ShowCursor implements Screen.
func (t *Tcell) ShowCursor(x, y int) {
	if s := t.tcellScreen(); s != nil {
		s.ShowCursor(x, y)
	}
}

// HideCursor implements Screen.
func (t *Tcell) HideCursor() {
	if s := t.tcellScreen(); s != nil {
		s.HideCursor()
	}
}

// Show implements Screen.
func (t *Tcell) Show() {
	if s := t.tcellScreen(); s != nil {
		s.Show()
	}
}

// Clear implements Screen.
func (t *Tcell) Clear() {
	if s := t.tcellScreen(); s != nil {
		s.Clear()
	}
}
