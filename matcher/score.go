package matcher

import (
	"sort"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/peco/winnow/internal/util"
	"github.com/peco/winnow/query"
	"golang.org/x/text/unicode/norm"
)

// Scoring weights. The absolute values are meaningless; only their
// relative magnitudes shape the ranking.
const (
	scoreMatch       = 16
	scoreConsecutive = 8
	scoreBoundary    = 8
	scorePathSep     = 8
	scoreGapPenalty  = 1
	scorePrefixMax   = 20
	scoreSubstring   = 100
)

var baseRuneCache sync.Map // rune -> rune

// baseRune folds a rune with combining diacritics down to its base
// character ("é" matches "e").
func baseRune(r rune) rune {
	if r < utf8.RuneSelf {
		return r
	}
	if v, ok := baseRuneCache.Load(r); ok {
		return v.(rune)
	}
	d := norm.NFD.String(string(r))
	b, _ := utf8.DecodeRuneInString(d)
	baseRuneCache.Store(r, b)
	return b
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

type foldFunc func(rune) rune

// foldFor computes the per-atom rune folding applied to both needle and
// haystack before comparison. Folding instead of transforming the
// haystack string keeps highlight offsets valid for the original bytes.
func (e *Engine[T]) foldFor(text string) foldFunc {
	sensitive := e.cfg.Case == CaseRespect ||
		(e.cfg.Case == CaseSmart && util.ContainsUpper(text))
	normalize := e.cfg.Normalization == NormSmart && isASCII(text)

	return func(r rune) rune {
		if normalize {
			r = baseRune(r)
		}
		if !sensitive {
			r = unicode.ToLower(r)
		}
		return r
	}
}

// haystack is a pattern string decoded once per item so each atom can
// scan it without re-walking UTF-8.
type haystack struct {
	runes []rune
	offs  []int // byte offset of each rune
}

func decode(s string) haystack {
	h := haystack{
		runes: make([]rune, 0, len(s)),
		offs:  make([]int, 0, len(s)),
	}
	for i, r := range s {
		h.runes = append(h.runes, r)
		h.offs = append(h.offs, i)
	}
	return h
}

// boundaryBonus rewards a match at the start of the string or right after
// a separator. With MatchPaths, path separators weigh extra.
func (e *Engine[T]) boundaryBonus(h haystack, i int) int {
	if i == 0 {
		return scoreBoundary
	}
	switch h.runes[i-1] {
	case '/', '\\':
		if e.cfg.MatchPaths {
			return scoreBoundary + scorePathSep
		}
		return scoreBoundary
	case ' ', '_', '-', '.':
		return scoreBoundary
	}
	return 0
}

// matchOne evaluates all atoms against one pattern. Negated atoms exclude
// the item on any hit and contribute neither score nor highlights.
func (e *Engine[T]) matchOne(pattern string, idx uint32, atoms []query.Atom) (Entry, bool) {
	if len(atoms) == 0 {
		return Entry{Index: idx}, true
	}

	h := decode(pattern)
	var total int
	var positions []int
	for _, a := range atoms {
		fold := e.foldFor(a.Text)
		pos, score, ok := e.matchAtom(h, a, fold)
		if a.Negated {
			if ok {
				return Entry{}, false
			}
			continue
		}
		if !ok {
			return Entry{}, false
		}
		total += score
		positions = append(positions, pos...)
	}

	if len(positions) > 1 {
		sort.Ints(positions)
		positions = dedupe(positions)
	}
	return Entry{Index: idx, Score: total, Highlights: positions}, true
}

func dedupe(sorted []int) []int {
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine[T]) matchAtom(h haystack, a query.Atom, fold foldFunc) ([]int, int, bool) {
	needle := make([]rune, 0, len(a.Text))
	for _, r := range a.Text {
		needle = append(needle, fold(r))
	}
	if len(needle) == 0 {
		return nil, 0, true
	}

	switch a.Kind {
	case query.Fuzzy:
		return e.matchFuzzy(h, needle, fold)
	case query.Substring:
		for start := 0; start+len(needle) <= len(h.runes); start++ {
			if e.runsEqual(h, start, needle, fold) {
				return e.anchored(h, start, len(needle)), scoreSubstring + e.boundaryBonus(h, start), true
			}
		}
	case query.Prefix:
		if e.runsEqual(h, 0, needle, fold) {
			return e.anchored(h, 0, len(needle)), scoreSubstring + scoreBoundary, true
		}
	case query.Suffix:
		start := len(h.runes) - len(needle)
		if start >= 0 && e.runsEqual(h, start, needle, fold) {
			return e.anchored(h, start, len(needle)), scoreSubstring + e.boundaryBonus(h, start), true
		}
	case query.Exact:
		if len(h.runes) == len(needle) && e.runsEqual(h, 0, needle, fold) {
			return e.anchored(h, 0, len(needle)), 2 * scoreSubstring, true
		}
	}
	return nil, 0, false
}

func (e *Engine[T]) runsEqual(h haystack, start int, needle []rune, fold foldFunc) bool {
	if start+len(needle) > len(h.runes) {
		return false
	}
	for i, nr := range needle {
		if fold(h.runes[start+i]) != nr {
			return false
		}
	}
	return true
}

func (e *Engine[T]) anchored(h haystack, start, n int) []int {
	pos := make([]int, n)
	for i := 0; i < n; i++ {
		pos[i] = h.offs[start+i]
	}
	return pos
}

// matchFuzzy finds the needle as a subsequence. A greedy forward pass
// locates the match; a backward pass then shrinks the span from the left
// so "abc" in "a...abc" highlights the tight cluster, not the first "a".
func (e *Engine[T]) matchFuzzy(h haystack, needle []rune, fold foldFunc) ([]int, int, bool) {
	idxs := make([]int, len(needle))

	ni := 0
	for hi := 0; hi < len(h.runes) && ni < len(needle); hi++ {
		if fold(h.runes[hi]) == needle[ni] {
			idxs[ni] = hi
			ni++
		}
	}
	if ni < len(needle) {
		return nil, 0, false
	}

	// backward pass from the last matched rune
	last := idxs[len(needle)-1]
	for ni, hi := len(needle)-1, last; ni >= 0; hi-- {
		if fold(h.runes[hi]) == needle[ni] {
			idxs[ni] = hi
			ni--
		}
	}

	score := 0
	for i, hi := range idxs {
		score += scoreMatch
		if i > 0 && idxs[i-1] == hi-1 {
			score += scoreConsecutive
		}
		if i == 0 || idxs[i-1] != hi-1 {
			score += e.boundaryBonus(h, hi)
		}
	}
	span := idxs[len(idxs)-1] - idxs[0] + 1
	score -= (span - len(idxs)) * scoreGapPenalty
	if e.cfg.PreferPrefix {
		if b := scorePrefixMax - idxs[0]; b > 0 {
			score += b
		}
	}

	pos := make([]int, len(idxs))
	for i, hi := range idxs {
		pos[i] = h.offs[hi]
	}
	return pos, score, true
}
