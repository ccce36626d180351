package winnow

import (
	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/peco/winnow/matcher"
)

// Injector is the producer-side handle for adding items from any
// goroutine. It is a small value; copying it is how it is "cloned".
//
// An injector is bound to the matcher generation it was created in.
// After the picker restarts, pushes through old injectors silently do
// nothing; they never fail.
type Injector[T any] struct {
	m        matcher.Matcher[T]
	renderer Renderer[T]
	gen      uint64
}

// Push renders the item once, hands the item and its matcher-visible
// string to the matcher, and returns the assigned stable index. The call
// does not block on match processing.
//
// A Render implementation that panics loses only the item being pushed;
// the panic is contained here so concurrent producers and the engine
// keep running.
func (inj Injector[T]) Push(item T) uint32 {
	if inj.m.Generation() != inj.gen {
		if pdebug.Enabled {
			pdebug.Printf("Injector.Push: stale generation, dropping item")
		}
		return 0
	}
	pattern, ok := renderSafely(inj.renderer, &item)
	if !ok {
		return 0
	}
	return inj.m.Push(item, pattern)
}

// Extend pushes each item in order.
func (inj Injector[T]) Extend(items ...T) {
	for _, item := range items {
		inj.Push(item)
	}
}

func renderSafely[T any](r Renderer[T], item *T) (pattern string, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return r.Render(item), true
}
