// Package ui hides the terminal-control collaborator (tcell) behind a
// small Screen contract, and implements frame composition plus the
// double-buffered writer that puts composed frames on screen.
package ui

import (
	"encoding/json"

	"github.com/gdamore/tcell/v2"
)

// Attribute represents terminal display attributes such as colors and
// text styling. It is a uint32 bitfield:
//
//	Bits 0-8:   Palette color index (0=default, 1-256 for 256-color palette)
//	Bits 0-23:  RGB color value (when AttrTrueColor flag is set)
//	Bit 24:     AttrTrueColor flag
//	Bit 25:     AttrBold
//	Bit 26:     AttrUnderline
//	Bit 27:     AttrReverse
type Attribute uint32

// Named palette color constants.
const (
	ColorDefault Attribute = 0x0000
	ColorBlack   Attribute = 0x0001
	ColorRed     Attribute = 0x0002
	ColorGreen   Attribute = 0x0003
	ColorYellow  Attribute = 0x0004
	ColorBlue    Attribute = 0x0005
	ColorMagenta Attribute = 0x0006
	ColorCyan    Attribute = 0x0007
	ColorWhite   Attribute = 0x0008
)

const (
	AttrTrueColor Attribute = 0x01000000
	AttrBold      Attribute = 0x02000000
	AttrUnderline Attribute = 0x04000000
	AttrReverse   Attribute = 0x08000000
)

const attrFlagMask = AttrTrueColor | AttrBold | AttrUnderline | AttrReverse

// Style describes display attributes for foreground and background.
type Style struct {
	fg Attribute
	bg Attribute
}

// NewStyle creates a Style from explicit attributes.
func NewStyle(fg, bg Attribute) Style {
	return Style{fg: fg, bg: bg}
}

// Merge overlays the non-default parts of o onto s. Used to combine the
// matched-text style with the selected-row background.
func (s Style) Merge(o Style) Style {
	out := s
	if o.fg&^attrFlagMask != 0 {
		out.fg = o.fg&^attrFlagMask | (out.fg|o.fg)&attrFlagMask
	} else {
		out.fg |= o.fg & attrFlagMask
	}
	if o.bg&^attrFlagMask != 0 {
		out.bg = o.bg&^attrFlagMask | (out.bg|o.bg)&attrFlagMask
	} else {
		out.bg |= o.bg & attrFlagMask
	}
	return out
}

func attrToColor(a Attribute) tcell.Color {
	if a&AttrTrueColor != 0 {
		return tcell.NewRGBColor(
			int32(a>>16&0xff),
			int32(a>>8&0xff),
			int32(a&0xff),
		)
	}
	idx := int(a &^ attrFlagMask)
	if idx == 0 {
		return tcell.ColorDefault
	}
	return tcell.PaletteColor(idx - 1)
}

// tcellStyle resolves the Style to the terminal library's representation.
func (s Style) tcellStyle() tcell.Style {
	st := tcell.StyleDefault.
		Foreground(attrToColor(s.fg)).
		Background(attrToColor(s.bg))
	attrs := (s.fg | s.bg) & attrFlagMask
	if attrs&AttrBold != 0 {
		st = st.Bold(true)
	}
	if attrs&AttrUnderline != 0 {
		st = st.Underline(true)
	}
	if attrs&AttrReverse != 0 {
		st = st.Reverse(true)
	}
	return st
}

var (
	stringToFg = map[string]Attribute{
		"default": ColorDefault,
		"black":   ColorBlack,
		"red":     ColorRed,
		"green":   ColorGreen,
		"yellow":  ColorYellow,
		"blue":    ColorBlue,
		"magenta": ColorMagenta,
		"cyan":    ColorCyan,
		"white":   ColorWhite,
	}
	stringToBg = map[string]Attribute{
		"on_default": ColorDefault,
		"on_black":   ColorBlack,
		"on_red":     ColorRed,
		"on_green":   ColorGreen,
		"on_yellow":  ColorYellow,
		"on_blue":    ColorBlue,
		"on_magenta": ColorMagenta,
		"on_cyan":    ColorCyan,
		"on_white":   ColorWhite,
	}
	stringToAttr = map[string]Attribute{
		"bold":      AttrBold,
		"underline": AttrUnderline,
		"reverse":   AttrReverse,
	}
)

// UnmarshalJSON parses the configuration form of a style, a list of
// words like ["underline", "cyan", "on_black"]. YAML config files are
// decoded by UnmarshalYAML, which accepts the same word list.
func (s *Style) UnmarshalJSON(buf []byte) error {
	raw := []string{}
	if err := json.Unmarshal(buf, &raw); err != nil {
		return err
	}
	*s = stringsToStyle(raw)
	return nil
}

// UnmarshalYAML decodes a YAML array of words into a Style.
func (s *Style) UnmarshalYAML(unmarshal func(any) error) error {
	raw := []string{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*s = stringsToStyle(raw)
	return nil
}

func stringsToStyle(raw []string) Style {
	style := Style{fg: ColorDefault, bg: ColorDefault}
	for _, word := range raw {
		if fg, ok := stringToFg[word]; ok {
			style.fg = fg
		}
		if bg, ok := stringToBg[word]; ok {
			style.bg = bg
		}
	}
	for _, word := range raw {
		if attr, ok := stringToAttr[word]; ok {
			style.fg |= attr
		}
	}
	return style
}

// StyleSet holds the styles for each visual class of the picker.
type StyleSet struct {
	Basic          Style `json:"Basic" yaml:"Basic"`
	Matched        Style `json:"Matched" yaml:"Matched"`
	Selected       Style `json:"Selected" yaml:"Selected"`
	SavedSelection Style `json:"SavedSelection" yaml:"SavedSelection"`
	Query          Style `json:"Query" yaml:"Query"`
	Prompt         Style `json:"Prompt" yaml:"Prompt"`
}

// NewStyleSet returns the default styles.
func NewStyleSet() StyleSet {
	return StyleSet{
		Basic:          Style{fg: ColorDefault, bg: ColorDefault},
		Matched:        Style{fg: ColorCyan, bg: ColorDefault},
		Selected:       Style{fg: ColorDefault | AttrUnderline, bg: ColorMagenta},
		SavedSelection: Style{fg: ColorBlack | AttrBold, bg: ColorCyan},
		Query:          Style{fg: ColorDefault, bg: ColorDefault},
		Prompt:         Style{fg: ColorBlue, bg: ColorDefault},
	}
}
