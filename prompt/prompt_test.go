package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertNormalizes(t *testing.T) {
	b := New()
	b.Insert("a\tb\nc\rd")
	assert.Equal(t, "a b c d", b.String())

	b2 := New()
	b2.Insert("x\x00\x01\x1b\x7fy")
	assert.Equal(t, "xy", b2.String(), "control characters other than LF/CR/TAB are dropped")
}

func TestCursorMovement(t *testing.T) {
	b := New()
	b.Insert("héllo")
	assert.Equal(t, 5, b.Pos())

	b.CursorLeft()
	b.CursorLeft()
	assert.Equal(t, 3, b.Pos())

	b.Insert("xx")
	assert.Equal(t, "hélxxlo", b.String())
	assert.Equal(t, 5, b.Pos())

	b.CursorStart()
	assert.Equal(t, 0, b.Pos())
	b.CursorLeft()
	assert.Equal(t, 0, b.Pos(), "cursor clamps at 0")

	b.CursorEnd()
	assert.Equal(t, 7, b.Pos())
	b.CursorRight()
	assert.Equal(t, 7, b.Pos(), "cursor clamps at grapheme count")
}

func TestGraphemeEditing(t *testing.T) {
	// ZWJ emoji sequence plus double-width CJK: each counts as one
	// grapheme for editing purposes
	b := New()
	b.Insert("a\U0001F469‍\U0001F4BB世b")
	require.Equal(t, 4, b.Len())

	b.CursorEnd()
	b.Backspace()
	assert.Equal(t, "a\U0001F469‍\U0001F4BB世", b.String())

	b.Backspace()
	assert.Equal(t, "a\U0001F469‍\U0001F4BB", b.String(), "ZWJ sequence survives deleting the cluster after it")

	b.Backspace()
	assert.Equal(t, "a", b.String(), "a ZWJ sequence deletes as a single grapheme")
}

func TestCombiningMarkMergesAtInsert(t *testing.T) {
	b := New()
	b.Insert("e")
	b.Insert("́") // combining acute
	assert.Equal(t, 1, b.Len(), "combining mark joins the preceding cluster")
	assert.LessOrEqual(t, b.Pos(), b.Len())
}

func TestDeleteAndBackspace(t *testing.T) {
	b := New()
	b.Insert("abc")
	b.CursorStart()
	assert.False(t, b.Backspace(), "backspace at start is a no-op")
	assert.True(t, b.Delete())
	assert.Equal(t, "bc", b.String())

	b.CursorEnd()
	assert.False(t, b.Delete(), "delete at end is a no-op")
}

func TestWordOps(t *testing.T) {
	b := New()
	b.Insert("foo bar-baz  qux")

	b.CursorWordBack()
	assert.Equal(t, "foo bar-baz  ", b.BeforeCursor())

	b.CursorWordBack()
	assert.Equal(t, "foo bar-", b.BeforeCursor())

	b.CursorStart()
	b.CursorWordForward()
	assert.Equal(t, "foo", b.BeforeCursor())

	b.CursorEnd()
	require.True(t, b.DeleteWordBack())
	assert.Equal(t, "foo bar-baz  ", b.String())
	require.True(t, b.DeleteWordBack())
	assert.Equal(t, "foo bar-", b.String())
}

func TestClearBeforeAfter(t *testing.T) {
	b := New()
	b.Insert("hello world")
	b.CursorStart()
	for i := 0; i < 5; i++ {
		b.CursorRight()
	}

	require.True(t, b.ClearBeforeCursor())
	assert.Equal(t, " world", b.String())
	assert.Equal(t, 0, b.Pos())

	require.True(t, b.ClearAfterCursor())
	assert.Equal(t, "", b.String())
	assert.False(t, b.ClearAfterCursor())
}

func TestGenerationCountsEditsOnly(t *testing.T) {
	b := New()
	g0 := b.Generation()

	b.CursorLeft()
	b.CursorEnd()
	assert.Equal(t, g0, b.Generation(), "cursor movement does not bump the generation")

	b.Insert("a")
	g1 := b.Generation()
	assert.Greater(t, g1, g0)

	b.Backspace()
	assert.Greater(t, b.Generation(), g1)

	b.Set("reset")
	assert.Greater(t, b.Generation(), g1)
}

func TestSetPlacesCursorAtEnd(t *testing.T) {
	b := New()
	b.Set("初期値")
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 3, b.Pos())
}
