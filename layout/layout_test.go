package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowText(r Row) string {
	var sb strings.Builder
	for _, run := range r.Runs {
		sb.WriteString(run.Text)
	}
	return sb.String()
}

func matchedText(r Row) string {
	var sb strings.Builder
	for _, run := range r.Runs {
		if run.Matched {
			sb.WriteString(run.Text)
		}
	}
	return sb.String()
}

func TestPlainLine(t *testing.T) {
	l := New(Config{})
	rows := l.Lines("hello", nil, 80, false, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, "hello", rowText(rows[0]))
}

func TestTabExpansion(t *testing.T) {
	l := New(Config{TabStop: 4})
	rows := l.Lines("ab\tc", nil, 80, false, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, "ab  c", rowText(rows[0]), "tab advances to the next 4-column stop")

	rows = l.Lines("abcd\te", nil, 80, false, 0)
	assert.Equal(t, "abcd    e", rowText(rows[0]))
}

func TestHardWrapOnNewline(t *testing.T) {
	l := New(Config{})
	rows := l.Lines("one\ntwo\nthree", nil, 80, false, 0)
	require.Len(t, rows, 3)
	assert.Equal(t, "one", rowText(rows[0]))
	assert.Equal(t, "two", rowText(rows[1]))
	assert.Equal(t, "three", rowText(rows[2]))
}

func TestSoftWrapAtCellBoundary(t *testing.T) {
	l := New(Config{})
	rows := l.Lines("abcdefgh", nil, 3, false, 0)
	require.Len(t, rows, 3)
	assert.Equal(t, "abc", rowText(rows[0]))
	assert.Equal(t, "def", rowText(rows[1]))
	assert.Equal(t, "gh", rowText(rows[2]))
}

func TestDoubleWidthNeverSplits(t *testing.T) {
	l := New(Config{})
	// each CJK cluster is 2 cells; width 5 fits two of them plus one
	// narrow cell, and the next wide cluster moves wholly to row 2
	rows := l.Lines("世界x界世", nil, 5, false, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, "世界x", rowText(rows[0]))
	assert.Equal(t, "界世", rowText(rows[1]))
	for _, r := range rows {
		assert.LessOrEqual(t, r.Width(), 5)
	}
}

func TestZeroWidthAttaches(t *testing.T) {
	l := New(Config{})
	// decomposed e + combining acute is one cluster occupying one cell
	rows := l.Lines("e\u0301x", nil, 80, false, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Width())
}

func TestHighlightOnCorrectRow(t *testing.T) {
	l := New(Config{})
	// "ab\ncd" with highlight on 'c' (byte 3)
	rows := l.Lines("ab\ncd", []int{3}, 80, false, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, "", matchedText(rows[0]))
	assert.Equal(t, "c", matchedText(rows[1]))
}

func TestHighlightSpansSoftWrap(t *testing.T) {
	l := New(Config{})
	rows := l.Lines("abcdef", []int{2, 3}, 3, false, 0)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", matchedText(rows[0]))
	assert.Equal(t, "d", matchedText(rows[1]))
}

func TestControlCharactersDropped(t *testing.T) {
	l := New(Config{})
	rows := l.Lines("a\x01b\x7fc", nil, 80, false, 0)
	require.Len(t, rows, 1)
	assert.Equal(t, "abc", rowText(rows[0]))
}

func TestScrollThroughChasesHighlight(t *testing.T) {
	l := New(Config{LeftPad: 2, RightPad: 2})
	long := strings.Repeat("x", 50) + "Z" + strings.Repeat("y", 10)
	hl := []int{50}

	// not selected: the line soft-wraps and no offset state is created
	rows := l.Lines(long, hl, 10, false, 1)
	assert.Greater(t, len(rows), 1)

	// selected: a single row, horizontally offset to expose the Z
	rows = l.Lines(long, hl, 10, true, 1)
	require.Len(t, rows, 1)
	assert.Contains(t, rowText(rows[0]), "Z")
	assert.LessOrEqual(t, rows[0].Width(), 10)
}

func TestScrollThroughResetsOnSelectionChange(t *testing.T) {
	l := New(Config{LeftPad: 1, RightPad: 1})
	long := strings.Repeat("a", 40) + "Q"
	hl := []int{40}

	rows := l.Lines(long, hl, 8, true, 1)
	require.Len(t, rows, 1)
	assert.Contains(t, rowText(rows[0]), "Q")

	// a different item with an in-view highlight starts from offset 0
	rows = l.Lines("Qbcdefgh", []int{0}, 8, true, 2)
	require.Len(t, rows, 1)
	assert.Equal(t, "Qbcdefgh", rowText(rows[0]))
}

func TestZeroWidthGeometry(t *testing.T) {
	l := New(Config{})
	assert.Nil(t, l.Lines("anything", nil, 0, false, 0))
}

func TestCache(t *testing.T) {
	c := NewCache(2)

	c.Put(1, 7, "one")
	got, ok := c.Get(1, 7)
	require.True(t, ok)
	assert.Equal(t, "one", got)

	_, ok = c.Get(1, 8)
	assert.False(t, ok, "a different generation misses")

	c.Put(2, 7, "two")
	c.Put(3, 7, "three")
	_, ok = c.Get(1, 7)
	assert.False(t, ok, "the oldest insertion is evicted")
	_, ok = c.Get(3, 7)
	assert.True(t, ok)

	c.Purge()
	_, ok = c.Get(3, 7)
	assert.False(t, ok)
}
