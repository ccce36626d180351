package ui

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleUnmarshal(t *testing.T) {
	var s Style
	require.NoError(t, json.Unmarshal([]byte(`["red","on_blue","bold"]`), &s))
	assert.Equal(t, NewStyle(ColorRed|AttrBold, ColorBlue), s)

	var d Style
	require.NoError(t, json.Unmarshal([]byte(`["underline"]`), &d))
	assert.Equal(t, NewStyle(ColorDefault|AttrUnderline, ColorDefault), d)

	var bad Style
	assert.Error(t, json.Unmarshal([]byte(`"not-a-list"`), &bad))
}

func TestStyleMerge(t *testing.T) {
	base := NewStyle(ColorDefault, ColorMagenta)
	matched := NewStyle(ColorCyan, ColorDefault)

	merged := base.Merge(matched)
	assert.Equal(t, NewStyle(ColorCyan, ColorMagenta), merged,
		"matched foreground rides on the selected background")

	bold := NewStyle(AttrBold, ColorDefault)
	assert.Equal(t, NewStyle(ColorCyan|AttrBold, ColorMagenta), merged.Merge(bold),
		"attribute-only overlays keep the existing colors")
}

func TestStyleSetDefaultsAreDistinct(t *testing.T) {
	set := NewStyleSet()
	assert.NotEqual(t, set.Basic, set.Selected)
	assert.NotEqual(t, set.Basic, set.Matched)
}
