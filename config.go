package winnow

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/peco/winnow/matcher"
	"github.com/peco/winnow/ui"
	"github.com/pkg/errors"
)

// DefaultFrameInterval is the render throttle used when the config does
// not specify one.
const DefaultFrameInterval = 15 * time.Millisecond

// Config holds everything that can be tuned on a Picker, either
// programmatically or from a YAML configuration file.
type Config struct {
	// Query pre-populates the prompt; the cursor starts at its end.
	Query string `json:"Query" yaml:"Query"`

	// Prompt is the string drawn before the query ("> " by default).
	Prompt string `json:"Prompt" yaml:"Prompt"`

	// CaseMatching is one of "smart", "ignore", "respect".
	CaseMatching string `json:"CaseMatching" yaml:"CaseMatching"`

	// Normalization is one of "smart", "never".
	Normalization string `json:"Normalization" yaml:"Normalization"`

	// MatchPaths tunes the matcher for path-like strings.
	MatchPaths bool `json:"MatchPaths" yaml:"MatchPaths"`

	// PreferPrefix rewards matches near the start of an item.
	PreferPrefix bool `json:"PreferPrefix" yaml:"PreferPrefix"`

	// SortResults ranks matches by score. When false, matches keep
	// insertion order.
	SortResults bool `json:"SortResults" yaml:"SortResults"`

	// ReverseItems flips the insertion-order tie break.
	ReverseItems bool `json:"ReverseItems" yaml:"ReverseItems"`

	// Reversed puts the prompt at the bottom and grows the list upwards.
	Reversed bool `json:"Reversed" yaml:"Reversed"`

	// MultiSelect enables the mark set and its keybindings.
	MultiSelect bool `json:"MultiSelect" yaml:"MultiSelect"`

	// FrameIntervalMS is the render throttle in milliseconds.
	FrameIntervalMS int `json:"FrameIntervalMS" yaml:"FrameIntervalMS"`

	// HighlightPadding is the cell margin scroll-through keeps between a
	// chased highlight and the edges.
	HighlightPadding int `json:"HighlightPadding" yaml:"HighlightPadding"`

	// ScrollPadding keeps the selection this many rows away from the
	// window edges while scrolling.
	ScrollPadding int `json:"ScrollPadding" yaml:"ScrollPadding"`

	// PromptPadding is the number of cells between the prompt string and
	// the query text.
	PromptPadding int `json:"PromptPadding" yaml:"PromptPadding"`

	// TabStop is the tab expansion interval for rendered items.
	TabStop int `json:"TabStop" yaml:"TabStop"`

	// RenderCacheSize bounds the rendered-string cache.
	RenderCacheSize int `json:"RenderCacheSize" yaml:"RenderCacheSize"`

	// Keymap maps key names ("C-w", "Enter") to action names
	// ("winnow.DeleteBackwardWord"). "-" unbinds the key.
	Keymap map[string]string `json:"Keymap" yaml:"Keymap"`

	// Style overrides the default display styles.
	Style ui.StyleSet `json:"Style" yaml:"Style"`
}

// NewConfig returns a Config with every default filled in.
func NewConfig() Config {
	return Config{
		Prompt:           "> ",
		CaseMatching:     "smart",
		Normalization:    "smart",
		SortResults:      true,
		FrameIntervalMS:  15,
		HighlightPadding: 2,
		PromptPadding:    0,
		Style:            ui.NewStyleSet(),
	}
}

// ReadFilename merges a YAML configuration file over the receiver.
func (c *Config) ReadFilename(filename string) error {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "failed to read configuration file")
	}
	if err := yaml.Unmarshal(buf, c); err != nil {
		return errors.Wrapf(err, "failed to parse configuration file %s", filename)
	}
	return nil
}

// FrameInterval returns the render throttle as a duration.
func (c Config) FrameInterval() time.Duration {
	if c.FrameIntervalMS <= 0 {
		return DefaultFrameInterval
	}
	return time.Duration(c.FrameIntervalMS) * time.Millisecond
}

func (c Config) caseMode() matcher.CaseMode {
	switch c.CaseMatching {
	case "ignore":
		return matcher.CaseIgnore
	case "respect":
		return matcher.CaseRespect
	}
	return matcher.CaseSmart
}

func (c Config) normMode() matcher.NormMode {
	if c.Normalization == "never" {
		return matcher.NormNever
	}
	return matcher.NormSmart
}

func (c Config) matcherConfig() matcher.Config {
	return matcher.Config{
		Case:          c.caseMode(),
		Normalization: c.normMode(),
		MatchPaths:    c.MatchPaths,
		PreferPrefix:  c.PreferPrefix,
		SortResults:   c.SortResults,
		ReverseItems:  c.ReverseItems,
	}
}
