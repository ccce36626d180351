package winnow

import (
	"context"
	"time"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/peco/winnow/hub"
	"github.com/peco/winnow/prompt"
	"github.com/peco/winnow/view"
)

// State is the slice of the picker that actions operate on. Keeping it
// an interface decouples the action table from the generic item type and
// lets tests drive actions against a fake.
type State interface {
	Prompt() *prompt.Buffer
	Hub() *hub.Hub[Event]
	View() *view.List
	CurrentSnapshot() view.Snapshot
	MultiSelect() bool

	RequestQuit()
	RequestAbort(err error)
	RequestSelect()
	RequestRestart()
}

// Action describes an operation executed upon receiving user input.
type Action interface {
	Execute(context.Context, State, Event)
}

// ActionFunc is an Action that is just a callback.
type ActionFunc func(context.Context, State, Event)

// Execute fulfills the Action interface.
func (a ActionFunc) Execute(ctx context.Context, state State, ev Event) {
	a(ctx, state, ev)
}

// nameToActions is the global map of canonical action name to action.
var nameToActions map[string]Action

// defaultKeyBinding is the default keybinding used by NewKeymap.
var defaultKeyBinding map[Key]Action

func (a ActionFunc) register(name string, defaultKeys ...string) {
	nameToActions["winnow."+name] = a
	for _, s := range defaultKeys {
		k, err := ParseKey(s)
		if err != nil {
			panic("winnow: invalid default key " + s + ": " + err.Error())
		}
		defaultKeyBinding[k] = a
	}
}

func init() {
	nameToActions = map[string]Action{}
	defaultKeyBinding = map[Key]Action{}

	ActionFunc(doCancel).register("Cancel", "C-c")
	ActionFunc(doQuit).register("Quit", "Esc", "C-g", "C-q")
	ActionFunc(doFinish).register("Finish", "Enter", "S-Enter")
	ActionFunc(doQuitOnEmpty).register("QuitOnEmpty", "C-d")
	ActionFunc(doRestart).register("Restart")

	ActionFunc(doSelectionUp).register("SelectionUp", "Up", "C-k", "C-p")
	ActionFunc(doSelectionDown).register("SelectionDown", "Down", "C-j", "C-n")
	ActionFunc(doSelectionPageUp).register("SelectionPageUp", "PgUp")
	ActionFunc(doSelectionPageDown).register("SelectionPageDown", "PgDn")
	ActionFunc(doSelectionTop).register("SelectionTop", "C-0")
	ActionFunc(doSelectionBottom).register("SelectionBottom")

	ActionFunc(doBackwardChar).register("BackwardChar", "Left", "C-b")
	ActionFunc(doForwardChar).register("ForwardChar", "Right", "C-f")
	ActionFunc(doBeginningOfLine).register("BeginningOfLine", "C-a", "Home")
	ActionFunc(doEndOfLine).register("EndOfLine", "C-e", "End")
	ActionFunc(doBackwardWord).register("BackwardWord")
	ActionFunc(doForwardWord).register("ForwardWord")

	ActionFunc(doDeleteBackwardChar).register("DeleteBackwardChar", "Backspace", "BS2", "S-Backspace")
	ActionFunc(doDeleteForwardChar).register("DeleteForwardChar", "Delete")
	ActionFunc(doDeleteBackwardWord).register("DeleteBackwardWord", "C-w")
	ActionFunc(doKillBeginningOfLine).register("KillBeginningOfLine", "C-u")
	ActionFunc(doKillEndOfLine).register("KillEndOfLine")
	ActionFunc(doDeleteAll).register("DeleteAll")

	ActionFunc(doToggleSelection).register("ToggleSelection", "Tab")
	ActionFunc(doSelectAllVisible).register("SelectAllVisible")
	ActionFunc(doUnselectAll).register("UnselectAll")
}

func doNothing(_ context.Context, _ State, _ Event) {}

// doAcceptChar appends a printable rune to the prompt. This is the
// fallback for key events with no binding.
func doAcceptChar(ctx context.Context, state State, ev Event) {
	if ev.Key.Ch == 0 {
		return
	}
	state.Prompt().Insert(string(ev.Key.Ch))
	state.Hub().SendDraw(ctx, hub.DrawOptions{Prompt: true})
}

func doCancel(_ context.Context, state State, _ Event) {
	state.RequestAbort(nil)
}

func doQuit(_ context.Context, state State, _ Event) {
	state.RequestQuit()
}

func doFinish(_ context.Context, state State, _ Event) {
	state.RequestSelect()
}

// doQuitOnEmpty quits only when the prompt is empty, mirroring the
// shell's Ctrl-D end-of-input convention.
func doQuitOnEmpty(_ context.Context, state State, _ Event) {
	if state.Prompt().Len() == 0 {
		state.RequestQuit()
	}
}

func doRestart(_ context.Context, state State, _ Event) {
	state.RequestRestart()
}

func makePagingAction(req hub.PagingRequest) ActionFunc {
	return func(ctx context.Context, state State, _ Event) {
		state.Hub().SendPaging(ctx, req)
	}
}

var (
	doSelectionUp       = makePagingAction(hub.ToLineAbove)
	doSelectionDown     = makePagingAction(hub.ToLineBelow)
	doSelectionPageUp   = makePagingAction(hub.ToScrollPageUp)
	doSelectionPageDown = makePagingAction(hub.ToScrollPageDown)
	doSelectionTop      = makePagingAction(hub.ToLineFirst)
	doSelectionBottom   = makePagingAction(hub.ToLineLast)
)

func promptAction(fn func(*prompt.Buffer) bool) ActionFunc {
	return func(ctx context.Context, state State, _ Event) {
		if fn(state.Prompt()) {
			state.Hub().SendDraw(ctx, hub.DrawOptions{Prompt: true})
		}
	}
}

var (
	doBackwardChar = promptAction(func(b *prompt.Buffer) bool {
		b.CursorLeft()
		return true
	})
	doForwardChar = promptAction(func(b *prompt.Buffer) bool {
		b.CursorRight()
		return true
	})
	doBeginningOfLine = promptAction(func(b *prompt.Buffer) bool {
		b.CursorStart()
		return true
	})
	doEndOfLine = promptAction(func(b *prompt.Buffer) bool {
		b.CursorEnd()
		return true
	})
	doBackwardWord = promptAction(func(b *prompt.Buffer) bool {
		b.CursorWordBack()
		return true
	})
	doForwardWord = promptAction(func(b *prompt.Buffer) bool {
		b.CursorWordForward()
		return true
	})
	doDeleteBackwardChar  = promptAction((*prompt.Buffer).Backspace)
	doDeleteForwardChar   = promptAction((*prompt.Buffer).Delete)
	doDeleteBackwardWord  = promptAction((*prompt.Buffer).DeleteWordBack)
	doKillBeginningOfLine = promptAction((*prompt.Buffer).ClearBeforeCursor)
	doKillEndOfLine       = promptAction((*prompt.Buffer).ClearAfterCursor)
	doDeleteAll           = promptAction(func(b *prompt.Buffer) bool {
		b.Set("")
		return true
	})
)

// doToggleSelection flips the mark on the entry under the cursor. Only
// meaningful when multi-select is enabled.
func doToggleSelection(ctx context.Context, state State, _ Event) {
	if !state.MultiSelect() {
		return
	}
	item, ok := state.View().CursorItem()
	if !ok {
		return
	}
	state.View().ToggleMark(item)
	state.Hub().SendDraw(ctx, hub.DrawOptions{})
}

func doSelectAllVisible(ctx context.Context, state State, _ Event) {
	if !state.MultiSelect() {
		return
	}
	if pdebug.Enabled {
		pdebug.Printf("doSelectAllVisible")
	}
	state.View().MarkAllVisible(state.CurrentSnapshot())
	state.Hub().SendStatusMsg(ctx, "marked visible entries", 500*time.Millisecond)
	state.Hub().SendDraw(ctx, hub.DrawOptions{})
}

func doUnselectAll(ctx context.Context, state State, _ Event) {
	state.View().UnmarkAll()
	state.Hub().SendDraw(ctx, hub.DrawOptions{})
}
