// Package view tracks what the user is pointing at: the selection cursor
// as a rank in the current match snapshot, the scroll window over the
// ranked list, and the multi-select mark set.
package view

import (
	"sync"

	"github.com/google/btree"
)

// Snapshot is the slice of the matcher's snapshot contract the view
// needs for reconciliation.
type Snapshot interface {
	MatchedCount() int
	EntryIndex(i int) uint32
	RankOfItem(index uint32) (int, bool)
}

// markItem makes a stable item index storable in a btree, which keeps
// the mark set ordered by item index (== insertion order).
type markItem uint32

func (m markItem) Less(than btree.Item) bool {
	return m < than.(markItem)
}

// List is the selection state. It is only ever mutated on the engine
// thread, but marks can be read when the pick resolves, so access is
// guarded anyway.
type List struct {
	mutex   sync.RWMutex
	cursor  int // rank into the last reconciled snapshot; -1 when no match
	top     int
	height  int
	pad     int
	matched int

	curItem uint32 // item index under the cursor
	hasCur  bool

	marks *btree.BTree
}

// NewList creates an empty list view.
func NewList() *List {
	return &List{
		cursor: -1,
		marks:  btree.New(32),
	}
}

// SetHeight tells the view how many entry rows are visible. Zero is
// legal (the terminal may be that small); with no visible rows the window
// never scrolls down to follow the cursor.
func (v *List) SetHeight(h int) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if h < 0 {
		h = 0
	}
	v.height = h
	v.scrollIntoView()
}

// SetPadding keeps the cursor at least pad rows away from the window
// edges while scrolling, where the list is tall enough to allow it.
func (v *List) SetPadding(pad int) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if pad < 0 {
		pad = 0
	}
	v.pad = pad
}

// Reconcile adjusts the cursor and window against a newly published
// snapshot. Selection follows the previously selected item to its new
// rank when it still matches; otherwise it clamps to the old rank.
func (v *List) Reconcile(s Snapshot) {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	v.matched = s.MatchedCount()
	if v.matched == 0 {
		v.cursor = -1
		v.top = 0
		return
	}

	old := v.cursor
	if old < 0 {
		old = 0
	}
	cursor := -1
	if v.hasCur {
		if rank, ok := s.RankOfItem(v.curItem); ok {
			cursor = rank
		}
	}
	if cursor < 0 {
		cursor = old
		if cursor > v.matched-1 {
			cursor = v.matched - 1
		}
	}
	v.cursor = cursor
	v.curItem = s.EntryIndex(cursor)
	v.hasCur = true
	v.scrollIntoView()
}

// scrollIntoView keeps cursor within [top, top+height), preferring to
// leave top alone. Caller holds the lock.
func (v *List) scrollIntoView() {
	if v.cursor < 0 {
		v.top = 0
		return
	}
	pad := v.pad
	if v.height > 0 && pad > (v.height-1)/2 {
		pad = (v.height - 1) / 2
	}
	if v.cursor-pad < v.top {
		v.top = v.cursor - pad
	}
	if v.height > 0 && v.cursor+pad >= v.top+v.height {
		v.top = v.cursor + pad - v.height + 1
	}
	maxTop := v.matched - v.height
	if maxTop < 0 {
		maxTop = 0
	}
	if v.top > maxTop {
		v.top = maxTop
	}
	if v.top < 0 {
		v.top = 0
	}
}

// track updates curItem after a cursor move. Caller holds the lock.
func (v *List) track(s Snapshot) {
	if v.cursor >= 0 && v.cursor < v.matched {
		v.curItem = s.EntryIndex(v.cursor)
		v.hasCur = true
	}
	v.scrollIntoView()
}

// Move shifts the cursor by delta ranks, clamping at both ends.
func (v *List) Move(s Snapshot, delta int) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.matched == 0 {
		return
	}
	c := v.cursor + delta
	if c < 0 {
		c = 0
	}
	if c > v.matched-1 {
		c = v.matched - 1
	}
	v.cursor = c
	v.track(s)
}

// Page shifts the cursor by whole windows.
func (v *List) Page(s Snapshot, pages int) {
	h := v.Height()
	if h <= 0 {
		h = 1
	}
	v.Move(s, pages*h)
}

// Home moves the cursor to rank 0.
func (v *List) Home(s Snapshot) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.matched == 0 {
		return
	}
	v.cursor = 0
	v.track(s)
}

// End moves the cursor to the last rank.
func (v *List) End(s Snapshot) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.matched == 0 {
		return
	}
	v.cursor = v.matched - 1
	v.track(s)
}

// Cursor returns the current rank, or -1 when nothing matches.
func (v *List) Cursor() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.cursor
}

// Top returns the rank shown in the first visible row.
func (v *List) Top() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.top
}

// Height returns the visible row count last set by the layout.
func (v *List) Height() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.height
}

// CursorItem returns the item index under the cursor.
func (v *List) CursorItem() (uint32, bool) {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	if v.cursor < 0 {
		return 0, false
	}
	return v.curItem, v.hasCur
}

// ToggleMark flips the mark on the given item.
func (v *List) ToggleMark(item uint32) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.marks.Has(markItem(item)) {
		v.marks.Delete(markItem(item))
		return
	}
	v.marks.ReplaceOrInsert(markItem(item))
}

// MarkAllVisible marks every entry in the visible window.
func (v *List) MarkAllVisible(s Snapshot) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	for i := v.top; i < v.top+v.height && i < v.matched; i++ {
		v.marks.ReplaceOrInsert(markItem(s.EntryIndex(i)))
	}
}

// UnmarkAll clears the mark set.
func (v *List) UnmarkAll() {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.marks = btree.New(32)
}

// Marked reports whether the item carries a mark.
func (v *List) Marked(item uint32) bool {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.marks.Has(markItem(item))
}

// MarkedItems returns the marked item indices in ascending order, which
// is insertion order because indices are assigned sequentially.
func (v *List) MarkedItems() []uint32 {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	out := make([]uint32, 0, v.marks.Len())
	v.marks.Ascend(func(it btree.Item) bool {
		out = append(out, uint32(it.(markItem)))
		return true
	})
	return out
}

// MarkCount returns the number of marked items.
func (v *List) MarkCount() int {
	v.mutex.RLock()
	defer v.mutex.RUnlock()
	return v.marks.Len()
}
