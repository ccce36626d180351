package winnow

import (
	"maps"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

// Keymap resolves key events to actions. It starts from the default
// binding table and applies the user's configuration on top; binding a
// key to "-" removes it.
type Keymap struct {
	config map[string]string
	keys   map[Key]Action
}

// NewKeymap creates a Keymap from the configured overrides.
func NewKeymap(config map[string]string) Keymap {
	return Keymap{config: config}
}

// ApplyKeybinding compiles the default bindings plus the configured
// overrides into the lookup table.
func (km *Keymap) ApplyKeybinding() error {
	keys := map[Key]Action{}
	maps.Copy(keys, defaultKeyBinding)

	for name, actionName := range km.config {
		k, err := ParseKey(name)
		if err != nil {
			return errors.Wrapf(err, "unknown key %q", name)
		}
		if actionName == "-" {
			delete(keys, k)
			continue
		}
		action, ok := nameToActions[actionName]
		if !ok {
			return errors.Errorf("could not resolve %q: no such action", actionName)
		}
		keys[k] = action
	}

	km.keys = keys
	return nil
}

// LookupAction returns the action for the key event. Unbound printable
// runes fall through to prompt insertion; everything else is a no-op.
func (km Keymap) LookupAction(ev Event) Action {
	if a, ok := km.keys[ev.Key]; ok {
		return a
	}
	if ev.Key.Code == tcell.KeyRune && ev.Key.Mod&(tcell.ModCtrl|tcell.ModAlt) == 0 {
		return ActionFunc(doAcceptChar)
	}
	return ActionFunc(doNothing)
}
