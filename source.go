package winnow

import (
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// ErrEventSourceClosed is reported when the event source shuts down
// underneath a running pick.
var ErrEventSourceClosed = errors.New("event source closed")

// EventSource is the engine's sole input. RecvTimeout blocks for at most
// d and reports ok=false on timeout; the engine treats a timeout as the
// frame pulse.
type EventSource interface {
	RecvTimeout(d time.Duration) (Event, bool)
}

// TcellSource adapts the terminal event stream of a ui.Tcell screen into
// the unified Event stream. It owns the bracketed-paste state: runes
// arriving between paste fences are buffered and delivered as a single
// atomic EventPaste.
type TcellSource struct {
	evCh    <-chan tcell.Event
	timer   *time.Timer
	inPaste bool
	paste   strings.Builder
}

// NewTcellSource creates a source reading from the given event channel.
func NewTcellSource(evCh <-chan tcell.Event) *TcellSource {
	return &TcellSource{
		evCh:  evCh,
		timer: time.NewTimer(0),
	}
}

// RecvTimeout implements EventSource.
func (s *TcellSource) RecvTimeout(d time.Duration) (Event, bool) {
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
	s.timer.Reset(d)

	for {
		select {
		case <-s.timer.C:
			return Event{}, false
		case raw, ok := <-s.evCh:
			if !ok {
				return Event{Kind: EventAbort, Err: ErrEventSourceClosed}, true
			}
			if ev, ok := s.translate(raw); ok {
				return ev, true
			}
			// swallowed (paste accumulation etc); keep waiting
		}
	}
}

func (s *TcellSource) translate(raw tcell.Event) (Event, bool) {
	switch tev := raw.(type) {
	case *tcell.EventKey:
		if s.inPaste {
			switch tev.Key() {
			case tcell.KeyRune:
				s.paste.WriteRune(tev.Rune())
			case tcell.KeyEnter:
				s.paste.WriteByte('\n')
			case tcell.KeyTab:
				s.paste.WriteByte('\t')
			}
			return Event{}, false
		}
		return Event{Kind: EventKey, Key: normKey(tev)}, true
	case *tcell.EventPaste:
		if tev.Start() {
			s.inPaste = true
			s.paste.Reset()
			return Event{}, false
		}
		s.inPaste = false
		text := s.paste.String()
		s.paste.Reset()
		return Event{Kind: EventPaste, Text: text}, true
	case *tcell.EventResize:
		cols, rows := tev.Size()
		return Event{Kind: EventResize, Cols: cols, Rows: rows}, true
	case *tcell.EventError:
		return Event{Kind: EventAbort, Err: errors.Wrap(tev, "terminal event error")}, true
	}
	return Event{}, false
}

// ChanSource is an EventSource fed through a channel. It backs
// application event injection and scripted tests.
type ChanSource struct {
	mutex  sync.Mutex
	ch     chan Event
	closed bool
}

// NewChanSource creates a ChanSource with a buffered channel.
func NewChanSource() *ChanSource {
	return &ChanSource{ch: make(chan Event, 64)}
}

// Post enqueues an event. Posting to a closed source is a no-op so
// producers never have to coordinate with picker shutdown.
func (s *ChanSource) Post(ev Event) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return
	}
	s.ch <- ev
}

// Close shuts the source; a pending RecvTimeout returns an abort event.
func (s *ChanSource) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// RecvTimeout implements EventSource.
func (s *ChanSource) RecvTimeout(d time.Duration) (Event, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return Event{Kind: EventAbort, Err: ErrEventSourceClosed}, true
		}
		return ev, true
	case <-timer.C:
		return Event{}, false
	}
}
