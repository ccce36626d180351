// Package prompt implements the editable query line. All positions are
// measured in grapheme clusters, never bytes or runes, so editing behaves
// correctly for combining marks, ZWJ sequences and wide characters.
package prompt

import (
	"strings"
	"sync"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/rivo/uniseg"
)

// Buffer is the query line plus a cursor. All methods are safe for
// concurrent use, although in practice edits are serialized on the
// engine thread.
type Buffer struct {
	mutex    sync.Mutex
	clusters []string
	cur      int
	gen      uint64
}

// New creates an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// normalize maps incoming text to the subset the prompt accepts: LF, CR
// and TAB each become a single space, all other ASCII control characters
// (including DEL) are dropped.
func normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			sb.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			// dropped
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func segment(s string) []string {
	if s == "" {
		return nil
	}
	clusters := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		clusters = append(clusters, g.Str())
	}
	return clusters
}

// splice recomputes the cluster list from the text before and after the
// edit point. Re-segmenting the joined string matters: an inserted
// combining mark may merge with the cluster before it.
func (b *Buffer) splice(before, after string) {
	joined := before + after
	b.clusters = segment(joined)
	b.cur = uniseg.GraphemeClusterCount(before)
	if b.cur > len(b.clusters) {
		b.cur = len(b.clusters)
	}
	b.gen++
}

func (b *Buffer) before() string {
	return strings.Join(b.clusters[:b.cur], "")
}

func (b *Buffer) after() string {
	return strings.Join(b.clusters[b.cur:], "")
}

// Insert adds text at the cursor, normalizing control characters first.
func (b *Buffer) Insert(s string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	s = normalize(s)
	if s == "" {
		return
	}
	b.splice(b.before()+s, b.after())
}

// Backspace removes the grapheme before the cursor. Reports whether
// anything was removed.
func (b *Buffer) Backspace() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.cur == 0 {
		return false
	}
	b.clusters = append(b.clusters[:b.cur-1], b.clusters[b.cur:]...)
	b.cur--
	b.gen++
	return true
}

// Delete removes the grapheme under the cursor. Reports whether anything
// was removed.
func (b *Buffer) Delete() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.cur >= len(b.clusters) {
		return false
	}
	b.clusters = append(b.clusters[:b.cur], b.clusters[b.cur+1:]...)
	b.gen++
	return true
}

// CursorLeft moves the cursor one grapheme to the left.
func (b *Buffer) CursorLeft() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.cur > 0 {
		b.cur--
	}
}

// CursorRight moves the cursor one grapheme to the right.
func (b *Buffer) CursorRight() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.cur < len(b.clusters) {
		b.cur++
	}
}

// CursorStart moves the cursor to the beginning of the line.
func (b *Buffer) CursorStart() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.cur = 0
}

// CursorEnd moves the cursor past the last grapheme.
func (b *Buffer) CursorEnd() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.cur = len(b.clusters)
}

// wordStarts returns the cluster offsets at which word tokens begin.
// Boundaries follow UAX #29; tokens without letters or digits (spaces,
// punctuation runs) do not count as words.
func wordStarts(clusters []string) []int {
	var starts []int
	pos := 0
	tokens := words.FromString(strings.Join(clusters, ""))
	for tokens.Next() {
		tok := tokens.Value()
		n := uniseg.GraphemeClusterCount(tok)
		if strings.ContainsFunc(tok, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) {
			starts = append(starts, pos)
		}
		pos += n
	}
	return starts
}

// wordEnds is the counterpart of wordStarts for forward movement.
func wordEnds(clusters []string) []int {
	var ends []int
	pos := 0
	tokens := words.FromString(strings.Join(clusters, ""))
	for tokens.Next() {
		tok := tokens.Value()
		n := uniseg.GraphemeClusterCount(tok)
		if strings.ContainsFunc(tok, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) {
			ends = append(ends, pos+n)
		}
		pos += n
	}
	return ends
}

// CursorWordBack moves the cursor to the start of the previous word.
func (b *Buffer) CursorWordBack() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.cur = b.prevWordStart()
}

// CursorWordForward moves the cursor past the end of the next word.
func (b *Buffer) CursorWordForward() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for _, e := range wordEnds(b.clusters) {
		if e > b.cur {
			b.cur = e
			return
		}
	}
	b.cur = len(b.clusters)
}

func (b *Buffer) prevWordStart() int {
	prev := 0
	for _, s := range wordStarts(b.clusters) {
		if s >= b.cur {
			break
		}
		prev = s
	}
	return prev
}

// DeleteWordBack removes everything between the start of the previous
// word and the cursor.
func (b *Buffer) DeleteWordBack() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.cur == 0 {
		return false
	}
	start := b.prevWordStart()
	b.clusters = append(b.clusters[:start], b.clusters[b.cur:]...)
	b.cur = start
	b.gen++
	return true
}

// ClearBeforeCursor removes everything before the cursor.
func (b *Buffer) ClearBeforeCursor() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.cur == 0 {
		return false
	}
	b.clusters = append([]string(nil), b.clusters[b.cur:]...)
	b.cur = 0
	b.gen++
	return true
}

// ClearAfterCursor removes everything from the cursor to the end.
func (b *Buffer) ClearAfterCursor() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.cur >= len(b.clusters) {
		return false
	}
	b.clusters = b.clusters[:b.cur]
	b.gen++
	return true
}

// Set replaces the contents wholesale and places the cursor at the end.
func (b *Buffer) Set(s string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.clusters = segment(normalize(s))
	b.cur = len(b.clusters)
	b.gen++
}

// String returns the current contents.
func (b *Buffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return strings.Join(b.clusters, "")
}

// Len returns the number of grapheme clusters.
func (b *Buffer) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.clusters)
}

// Pos returns the cursor position in grapheme clusters.
func (b *Buffer) Pos() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.cur
}

// BeforeCursor returns the text before the cursor. The layout uses it to
// compute the terminal cursor column.
func (b *Buffer) BeforeCursor() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.before()
}

// Generation returns a counter that increments on every mutation of the
// contents (cursor-only movement does not count). The engine compares it
// against the last submitted value to decide whether to re-run the query.
func (b *Buffer) Generation() uint64 {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.gen
}
