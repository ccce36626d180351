package winnow

import (
	"context"
	"fmt"
	"time"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/mattn/go-runewidth"
	"github.com/peco/winnow/hub"
	"github.com/peco/winnow/layout"
	"github.com/peco/winnow/ui"
)

// run is the engine loop: one goroutine, suspended only inside
// RecvTimeout, rendering at most once per frame interval.
func (p *Picker[T]) run(ctx context.Context, screen ui.Screen, src EventSource) (*Outcome[T], error) {
	if pdebug.Enabled {
		g := pdebug.Marker("Picker.run")
		defer g.End()
	}

	writer := ui.NewWriter(screen)
	interval := p.cfg.FrameInterval()

	p.snap = p.m.Snapshot()
	var prevSeq uint64
	var lastFrame time.Time // zero value forces an immediate first frame
	dirty := true
	resized := false

	var lastCursorItem uint32
	haveCursorItem := false

	for {
		if p.outcome != nil || p.fatal != nil {
			return p.outcome, p.fatal
		}
		select {
		case <-ctx.Done():
			p.RequestAbort(ctx.Err())
			continue
		default:
		}

		timeout := interval - time.Since(lastFrame)
		if timeout < 0 {
			timeout = 0
		}
		if ev, ok := src.RecvTimeout(timeout); ok {
			if ev.Kind == EventResize {
				resized = true
			}
			p.handle(ctx, ev)
		}
		p.drainHub(ctx, &dirty)

		// forward prompt edits to the matcher in typed order
		if g := p.prompt.Generation(); g != p.lastSubmittedGen {
			p.m.SetQuery(p.prompt.String())
			p.lastSubmittedGen = g
		}

		if p.outcome != nil || p.fatal != nil {
			continue
		}

		if time.Since(lastFrame) < interval && !resized {
			continue
		}

		// one snapshot per frame: the rendered entries and the cursor
		// always agree on which snapshot they came from
		snap := p.m.Snapshot()
		if snap.Sequence() == prevSeq && !dirty && !resized {
			lastFrame = time.Now()
			continue
		}
		p.snap = snap
		prevSeq = snap.Sequence()

		width, height := screen.Size()
		p.list.SetHeight(height - 1)
		p.list.Reconcile(snap)

		// the horizontal scroll-through offset belongs to one selected
		// entry; moving the selection starts over
		if item, ok := p.list.CursorItem(); !ok || !haveCursorItem || item != lastCursorItem {
			p.lay.ResetScroll()
			lastCursorItem, haveCursorItem = item, ok
		}

		if frame := p.compose(width, height); frame != nil {
			if resized {
				writer.Reset()
			}
			writer.Write(frame)
		}
		lastFrame = time.Now()
		// keep composing while the selected entry has highlights that
		// have not scrolled into view yet
		dirty = p.lay.ScrollPending()
		resized = false
	}
}

// handle routes one event. Key events resolve through the keymap; the
// control variants resolve the session directly.
func (p *Picker[T]) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventKey:
		p.keymap.LookupAction(ev).Execute(ctx, p, ev)
	case EventPaste:
		p.prompt.Insert(ev.Text)
		p.hub.SendDraw(ctx, hub.DrawOptions{Prompt: true})
	case EventResize, EventTick:
		// geometry and frame pulses are handled by the loop itself
	case EventQuit:
		p.RequestQuit()
	case EventAbort:
		p.RequestAbort(ev.Err)
	case EventSelect:
		p.RequestSelect()
	case EventRestart:
		p.RequestRestart()
	case EventUser:
		if ev.Err != nil {
			p.RequestAbort(&ApplicationError{Payload: ev.Err})
			return
		}
		if p.userEventFn != nil {
			p.userEventFn(ev.User)
		}
	}
}

// drainHub consumes everything queued on the hub without blocking.
// Actions run on this same goroutine, so anything they sent during
// handle() is picked up here before the next wait.
func (p *Picker[T]) drainHub(ctx context.Context, dirty *bool) {
	for {
		select {
		case pl := <-p.hub.DrawCh():
			if pl.Data().Full {
				p.cache.Purge()
			}
			*dirty = true
			pl.Done()
		case pl := <-p.hub.PagingCh():
			p.applyPaging(pl.Data())
			*dirty = true
			pl.Done()
		case pl := <-p.hub.StatusCh():
			msg := pl.Data()
			p.status = msg.Message
			if msg.Delay > 0 {
				p.statusDeadline = time.Now().Add(msg.Delay)
			} else {
				p.statusDeadline = time.Time{}
			}
			*dirty = true
			pl.Done()
		case pl := <-p.hub.EventCh():
			ev := pl.Data()
			pl.Done()
			p.handle(ctx, ev)
		default:
			return
		}
	}
}

// applyPaging translates visual movement onto the rank-ordered list.
// With the reversed orientation rank 0 sits at the bottom, so the
// visual direction flips.
func (p *Picker[T]) applyPaging(req hub.PagingRequest) {
	dir := 1
	if p.cfg.Reversed {
		dir = -1
	}
	switch req {
	case hub.ToLineAbove:
		p.list.Move(p.snap, -dir)
	case hub.ToLineBelow:
		p.list.Move(p.snap, dir)
	case hub.ToScrollPageUp:
		p.list.Page(p.snap, -dir)
	case hub.ToScrollPageDown:
		p.list.Page(p.snap, dir)
	case hub.ToLineFirst:
		if dir > 0 {
			p.list.Home(p.snap)
		} else {
			p.list.End(p.snap)
		}
	case hub.ToLineLast:
		if dir > 0 {
			p.list.End(p.snap)
		} else {
			p.list.Home(p.snap)
		}
	}
}

// renderCached returns the display string for an item, consulting the
// bounded cache first. Cache entries are keyed by the matcher
// generation so a restart invalidates them wholesale.
func (p *Picker[T]) renderCached(idx uint32) string {
	gen := p.snap.Generation()
	if s, ok := p.cache.Get(idx, gen); ok {
		return s
	}
	item := p.snap.Item(idx)
	if item == nil {
		return ""
	}
	s, ok := renderSafely(p.renderer, item)
	if !ok {
		return ""
	}
	p.cache.Put(idx, gen, s)
	return s
}

type composedRow struct {
	runs []layout.Run
	base ui.Style
	fill bool // paint the base style out to the right edge
}

// compose builds the frame for the current snapshot and view state.
// Returns nil when the geometry is too small to draw anything; no frame
// is emitted in that case.
func (p *Picker[T]) compose(width, height int) *ui.Frame {
	if width <= 0 || height <= 0 {
		return nil
	}

	styles := p.cfg.Style
	listRows := height - 1

	f := ui.NewFrame(width, height)

	promptY := 0
	if p.cfg.Reversed {
		promptY = height - 1
	}
	p.composePrompt(f, promptY, width)

	if listRows <= 0 {
		return f
	}

	// collect per-item row blocks until the list area is full
	snap := p.snap
	cursor := p.list.Cursor()
	var blocks [][]composedRow
	total := 0
	for rank := p.list.Top(); rank < snap.MatchedCount() && total < listRows; rank++ {
		ent := snap.Entry(rank)
		selected := rank == cursor
		display := p.renderCached(ent.Index)

		base := styles.Basic
		marked := p.cfg.MultiSelect && p.list.Marked(ent.Index)
		if marked {
			base = styles.SavedSelection
		}
		if selected {
			base = base.Merge(styles.Selected)
		}

		rows := p.lay.Lines(display, ent.Highlights, width, selected, ent.Index)
		block := make([]composedRow, 0, len(rows))
		for _, r := range rows {
			block = append(block, composedRow{runs: r.Runs, base: base, fill: selected || marked})
		}
		if total+len(block) > listRows {
			block = block[:listRows-total]
		}
		total += len(block)
		blocks = append(blocks, block)
	}

	y := promptY + 1
	if p.cfg.Reversed {
		// rank 0 hugs the prompt at the bottom; blocks stack upwards,
		// rows within a block keep their natural order
		y = height - 2
		for _, block := range blocks {
			y -= len(block) - 1
			p.composeBlock(f, block, y, width, styles)
			y -= 1
		}
		return f
	}

	for _, block := range blocks {
		p.composeBlock(f, block, y, width, styles)
		y += len(block)
	}
	return f
}

func (p *Picker[T]) composeBlock(f *ui.Frame, block []composedRow, y, width int, styles ui.StyleSet) {
	for i, row := range block {
		x := 0
		for _, run := range row.runs {
			st := row.base
			if run.Matched {
				st = st.Merge(styles.Matched)
			}
			x = f.Print(x, y+i, run.Text, st)
		}
		if row.fill {
			f.Fill(x, y+i, row.base)
		}
	}
}

// composePrompt draws the prompt marker, the query, the cursor and the
// right-aligned counters (or a transient status message).
func (p *Picker[T]) composePrompt(f *ui.Frame, y, width int) {
	styles := p.cfg.Style

	x := f.Print(0, y, p.cfg.Prompt, styles.Prompt)
	for i := 0; i < p.cfg.PromptPadding; i++ {
		x = f.Print(x, y, " ", styles.Prompt)
	}
	queryX := x
	f.Print(x, y, p.prompt.String(), styles.Query)

	status := fmt.Sprintf("%d/%d", p.snap.MatchedCount(), p.snap.TotalCount())
	if n := p.list.MarkCount(); n > 0 {
		status = fmt.Sprintf("%s (%d)", status, n)
	}
	if p.status != "" && (p.statusDeadline.IsZero() || time.Now().Before(p.statusDeadline)) {
		status = p.status
	} else {
		p.status = ""
	}
	if sw := runewidth.StringWidth(status); sw < width-queryX-2 {
		f.Print(width-sw, y, status, styles.Basic)
	}

	cursorX := queryX + runewidth.StringWidth(p.prompt.BeforeCursor())
	if cursorX > width-1 {
		cursorX = width - 1
	}
	f.SetCursor(cursorX, y)
}
