package winnow

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// EventKind discriminates the unified event stream consumed by the
// engine loop.
type EventKind int

const (
	// EventKey is one logical key press.
	EventKey EventKind = iota + 1

	// EventPaste is a bracketed-paste payload, delivered atomically.
	EventPaste

	// EventResize reports new terminal geometry.
	EventResize

	// EventTick is the scheduler-driven frame pulse.
	EventTick

	// EventQuit requests a clean exit with no selection.
	EventQuit

	// EventAbort requests an interrupt-style exit.
	EventAbort

	// EventSelect resolves the pick with the current selection.
	EventSelect

	// EventRestart drops all items and starts a new matcher generation.
	EventRestart

	// EventUser carries an application-defined payload, or an
	// abort-with-error when Err is set.
	EventUser
)

// Event is one element of the unified stream: terminal input, the frame
// pulse, or an application-injected control event.
type Event struct {
	Kind EventKind

	Key        Key
	Text       string
	Cols, Rows int
	User       any
	Err        error
}

// Key identifies one logical key press: a special key code or a rune,
// plus modifiers. Ctrl-letter codes are normalized so that lookup by
// either the code or the rune+modifier form finds the same binding.
type Key struct {
	Code tcell.Key
	Ch   rune
	Mod  tcell.ModMask
}

// normKey canonicalizes a terminal key event. Control codes double as
// dedicated key codes in tcell (Ctrl-H is Backspace, Ctrl-M is Enter),
// so for those the redundant Ctrl modifier is stripped; the code alone
// identifies the chord. This is also what makes "Backspace" and "C-h"
// the same binding.
func normKey(ev *tcell.EventKey) Key {
	k := Key{Code: ev.Key(), Mod: ev.Modifiers()}
	if k.Code == tcell.KeyRune {
		k.Ch = ev.Rune()
		// Shift is already reflected in the rune itself
		k.Mod &^= tcell.ModShift
	}
	if isCtrlCode(k.Code) {
		k.Mod &^= tcell.ModCtrl
	}
	return k
}

// isCtrlCode reports whether the code is one of tcell's dedicated
// control-key codes, for which a Ctrl modifier is redundant.
func isCtrlCode(c tcell.Key) bool {
	return (c >= tcell.KeyCtrlA && c <= tcell.KeyCtrlZ) ||
		(c >= tcell.KeyCtrlA && c <= tcell.KeyEscape)
}

var nameToKey = map[string]Key{
	"Enter":     {Code: tcell.KeyEnter},
	"Esc":       {Code: tcell.KeyEscape},
	"Tab":       {Code: tcell.KeyTab},
	"Backspace": {Code: tcell.KeyBackspace},
	"BS2":       {Code: tcell.KeyBackspace2},
	"Delete":    {Code: tcell.KeyDelete},
	"Home":      {Code: tcell.KeyHome},
	"End":       {Code: tcell.KeyEnd},
	"PgUp":      {Code: tcell.KeyPgUp},
	"PgDn":      {Code: tcell.KeyPgDn},
	"Up":        {Code: tcell.KeyUp},
	"Down":      {Code: tcell.KeyDown},
	"Left":      {Code: tcell.KeyLeft},
	"Right":     {Code: tcell.KeyRight},
	"Space":     {Code: tcell.KeyRune, Ch: ' '},
}

// ParseKey resolves a key name like "C-w", "M-x", "S-Enter", "Up" or a
// single character into a Key. The naming convention follows the
// C-/M-/S- prefixes common in terminal tool configuration.
func ParseKey(name string) (Key, error) {
	var mod tcell.ModMask
	for {
		switch {
		case strings.HasPrefix(name, "C-"):
			mod |= tcell.ModCtrl
			name = name[2:]
			continue
		case strings.HasPrefix(name, "M-"):
			mod |= tcell.ModAlt
			name = name[2:]
			continue
		case strings.HasPrefix(name, "S-"):
			mod |= tcell.ModShift
			name = name[2:]
			continue
		}
		break
	}

	if k, ok := nameToKey[name]; ok {
		k.Mod |= mod
		return normalizeParsed(k), nil
	}

	runes := []rune(name)
	if len(runes) != 1 {
		return Key{}, errors.Errorf("unknown key name %q", name)
	}
	return normalizeParsed(Key{Code: tcell.KeyRune, Ch: runes[0], Mod: mod}), nil
}

// normalizeParsed maps C-<letter> onto the dedicated tcell key codes so
// parsed bindings compare equal to normalized terminal events.
func normalizeParsed(k Key) Key {
	if k.Code == tcell.KeyRune && k.Mod&tcell.ModCtrl != 0 && k.Ch >= 'a' && k.Ch <= 'z' {
		k = Key{
			Code: tcell.KeyCtrlA + tcell.Key(k.Ch-'a'),
			Mod:  k.Mod,
		}
	}
	if isCtrlCode(k.Code) {
		k.Mod &^= tcell.ModCtrl
	}
	return k
}

func keyName(k Key) string {
	var sb strings.Builder
	if k.Mod&tcell.ModAlt != 0 {
		sb.WriteString("M-")
	}
	if k.Mod&tcell.ModCtrl != 0 && !(k.Code >= tcell.KeyCtrlA && k.Code <= tcell.KeyEscape) {
		sb.WriteString("C-")
	}
	if k.Mod&tcell.ModShift != 0 && k.Code != tcell.KeyRune {
		sb.WriteString("S-")
	}
	for name, v := range nameToKey {
		if v.Code == k.Code && v.Ch == k.Ch {
			sb.WriteString(name)
			return sb.String()
		}
	}
	if k.Code >= tcell.KeyCtrlA && k.Code <= tcell.KeyCtrlZ {
		fmt.Fprintf(&sb, "C-%c", 'a'+rune(k.Code-tcell.KeyCtrlA))
		return sb.String()
	}
	if k.Code == tcell.KeyRune {
		sb.WriteRune(k.Ch)
		return sb.String()
	}
	fmt.Fprintf(&sb, "key(%d)", k.Code)
	return sb.String()
}
