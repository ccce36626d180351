// Package winnow is an embeddable fuzzy picker: it renders an fzf-style
// interactive terminal interface over a live, concurrently growing set
// of items and resolves to the item(s) a human picked.
//
// The picker engine is deliberately thin. Items flow in through an
// Injector from any goroutine; matching runs in the matcher collaborator
// (the bundled matcher.Engine by default); the engine loop consumes
// terminal events plus match snapshots and keeps the screen honest.
package winnow

import (
	"context"
	"os"
	"sync"
	"time"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/peco/winnow/hub"
	"github.com/peco/winnow/internal/util"
	"github.com/peco/winnow/layout"
	"github.com/peco/winnow/matcher"
	"github.com/peco/winnow/prompt"
	"github.com/peco/winnow/ui"
	"github.com/peco/winnow/view"
	"github.com/pkg/errors"
)

// Renderer maps an item to its display string. Implementations must be
// pure: the same item always renders to the same string, because the
// result is cached and is also what the matcher sees.
type Renderer[T any] interface {
	Render(item *T) string
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc[T any] func(item *T) string

// Render implements Renderer.
func (f RenderFunc[T]) Render(item *T) string {
	return f(item)
}

// Picker owns the engine state for one interactive pick session.
type Picker[T any] struct {
	cfg      Config
	renderer Renderer[T]

	m      matcher.Matcher[T]
	engine *matcher.Engine[T] // non-nil when we own the bundled matcher

	hub    *hub.Hub[Event]
	prompt *prompt.Buffer
	list   *view.List
	lay    *layout.Layout
	cache  *layout.Cache
	keymap Keymap

	userEventFn func(any)

	mutex   sync.Mutex
	picking bool

	// engine-thread state
	snap             matcher.Snapshot[T]
	outcome          *Outcome[T]
	fatal            error
	lastSubmittedGen uint64

	status         string
	statusDeadline time.Time
}

// New creates a Picker with the bundled matcher.
func New[T any](renderer Renderer[T], cfg Config) (*Picker[T], error) {
	return NewWithMatcher(renderer, cfg, nil)
}

// NewWithMatcher creates a Picker over a caller-supplied matcher; pass
// nil to use the bundled one.
func NewWithMatcher[T any](renderer Renderer[T], cfg Config, m matcher.Matcher[T]) (*Picker[T], error) {
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}

	def := NewConfig()
	if cfg.Prompt == "" {
		cfg.Prompt = def.Prompt
	}
	if cfg.CaseMatching == "" {
		cfg.CaseMatching = def.CaseMatching
	}
	if cfg.Normalization == "" {
		cfg.Normalization = def.Normalization
	}
	if cfg.FrameIntervalMS <= 0 {
		cfg.FrameIntervalMS = def.FrameIntervalMS
	}
	if cfg.HighlightPadding <= 0 {
		cfg.HighlightPadding = def.HighlightPadding
	}
	zero := ui.StyleSet{}
	if cfg.Style == zero {
		cfg.Style = def.Style
	}

	p := &Picker[T]{
		cfg:      cfg,
		renderer: renderer,
		hub:      hub.New[Event](16),
		prompt:   prompt.New(),
		list:     view.NewList(),
		lay: layout.New(layout.Config{
			TabStop:  cfg.TabStop,
			LeftPad:  cfg.HighlightPadding,
			RightPad: cfg.HighlightPadding,
		}),
		cache: layout.NewCache(cfg.RenderCacheSize),
	}
	p.list.SetPadding(cfg.ScrollPadding)

	if m != nil {
		p.m = m
	} else {
		p.engine = matcher.New[T](cfg.matcherConfig())
		p.m = p.engine
	}
	p.snap = p.m.Snapshot()

	p.keymap = NewKeymap(cfg.Keymap)
	if err := p.keymap.ApplyKeybinding(); err != nil {
		return nil, errors.Wrap(err, "failed to apply key bindings")
	}

	if cfg.Query != "" {
		p.prompt.Set(cfg.Query)
	}

	return p, nil
}

// Injector returns a producer handle bound to the current matcher
// generation. Handles may be copied freely across goroutines.
func (p *Picker[T]) Injector() Injector[T] {
	return Injector[T]{
		m:        p.m,
		renderer: p.renderer,
		gen:      p.m.Generation(),
	}
}

// Post injects an application event into the engine's unified stream.
// Use Event{Kind: EventUser, ...} for data events, or set Err to abort
// the pick with an application error.
func (p *Picker[T]) Post(ev Event) {
	p.hub.SendEvent(context.Background(), ev)
}

// SetUserEventHandler installs the callback invoked on EventUser events
// that do not carry an error. Must be set before Pick.
func (p *Picker[T]) SetUserEventHandler(fn func(any)) {
	p.userEventFn = fn
}

// Pick runs the interactive session on the process's terminal. It
// enters raw mode and the alternate screen, blocks until the user
// resolves the pick, and restores the terminal on every exit path.
func (p *Picker[T]) Pick(ctx context.Context) (*Outcome[T], error) {
	if !util.IsTty(os.Stdin) || !util.IsTty(os.Stderr) {
		return nil, ErrNotInteractive
	}
	return p.PickOn(ctx, ui.NewTcell())
}

// PickOn runs the session on a specific terminal screen, wiring the
// terminal event stream up once the screen is acquired. CLI drivers use
// this with a /dev/tty screen when stdin carries the item stream.
func (p *Picker[T]) PickOn(ctx context.Context, screen *ui.Tcell) (*Outcome[T], error) {
	return p.pickWith(ctx, screen, func() EventSource {
		return NewTcellSource(screen.EventChannel())
	})
}

// PickWith runs the session over a caller-supplied screen and event
// source; this is the seam tests and custom front ends use.
func (p *Picker[T]) PickWith(ctx context.Context, screen ui.Screen, src EventSource) (*Outcome[T], error) {
	return p.pickWith(ctx, screen, func() EventSource { return src })
}

// pickWith defers event-source construction until after screen.Init, as
// the terminal source reads a channel that only exists once the screen
// is up.
func (p *Picker[T]) pickWith(ctx context.Context, screen ui.Screen, srcFn func() EventSource) (outcome *Outcome[T], err error) {
	if pdebug.Enabled {
		g := pdebug.Marker("Picker.pickWith").BindError(&err)
		defer g.End()
	}

	p.mutex.Lock()
	if p.picking {
		p.mutex.Unlock()
		return nil, errors.New("pick is already in progress")
	}
	p.picking = true
	p.mutex.Unlock()
	defer func() {
		p.mutex.Lock()
		p.picking = false
		p.mutex.Unlock()
	}()

	if err := screen.Init(); err != nil {
		return nil, wrapIoError(err, "failed to acquire terminal")
	}
	// The terminal must be restored on every path out of the loop,
	// panics included.
	defer func() {
		if r := recover(); r != nil {
			_ = screen.Close()
			panic(r)
		}
		if cerr := screen.Close(); cerr != nil && err == nil {
			err = wrapIoError(cerr, "failed to release terminal")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if p.engine != nil {
		go func() { _ = p.engine.Run(ctx) }()
	}

	return p.run(ctx, screen, srcFn())
}

// --- State interface for actions ---

// Prompt returns the prompt buffer.
func (p *Picker[T]) Prompt() *prompt.Buffer { return p.prompt }

// Hub returns the message hub.
func (p *Picker[T]) Hub() *hub.Hub[Event] { return p.hub }

// View returns the match-list view state.
func (p *Picker[T]) View() *view.List { return p.list }

// CurrentSnapshot returns the snapshot the current frame is built from.
func (p *Picker[T]) CurrentSnapshot() view.Snapshot { return p.snap }

// MultiSelect reports whether marking is enabled.
func (p *Picker[T]) MultiSelect() bool { return p.cfg.MultiSelect }

// RequestQuit resolves the pick as a clean exit with no selection.
func (p *Picker[T]) RequestQuit() {
	p.outcome = &Outcome[T]{Kind: OutcomeQuit}
}

// RequestAbort resolves the pick as interrupted. A non-nil err is
// surfaced to the caller of Pick.
func (p *Picker[T]) RequestAbort(err error) {
	p.outcome = &Outcome[T]{Kind: OutcomeAborted}
	p.fatal = err
}

// RequestSelect resolves the pick with the marked items, or the entry
// under the cursor when nothing is marked. With no matches it is a
// no-op and the session continues.
func (p *Picker[T]) RequestSelect() {
	snap := p.snap
	if snap == nil || snap.MatchedCount() == 0 {
		return
	}

	var items []T
	if p.cfg.MultiSelect && p.list.MarkCount() > 0 {
		for _, idx := range p.list.MarkedItems() {
			if it := snap.Item(idx); it != nil {
				items = append(items, *it)
			}
		}
	} else {
		idx, ok := p.list.CursorItem()
		if !ok {
			return
		}
		it := snap.Item(idx)
		if it == nil {
			return
		}
		items = []T{*it}
	}
	p.outcome = &Outcome[T]{Kind: OutcomeSelected, Items: items}
}

// RequestRestart begins a new matcher generation: all items are
// dropped, marks are cleared, render caches are invalidated, and
// existing injectors become no-ops. The query is kept.
func (p *Picker[T]) RequestRestart() {
	p.m.Restart()
	p.cache.Purge()
	p.list.UnmarkAll()
	p.lay.ResetScroll()
	// resubmit the query into the new generation
	p.lastSubmittedGen = 0
	if p.prompt.Len() > 0 {
		p.m.SetQuery(p.prompt.String())
		p.lastSubmittedGen = p.prompt.Generation()
	}
}
