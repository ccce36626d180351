package matcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunning(t *testing.T, cfg Config) *Engine[string] {
	t.Helper()
	e := New[string](cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = e.Run(ctx) }()
	return e
}

func pushAll(e *Engine[string], items ...string) {
	for _, s := range items {
		e.Push(s, s)
	}
}

func matchedPatterns(s Snapshot[string]) []string {
	out := make([]string, 0, s.MatchedCount())
	for i := 0; i < s.MatchedCount(); i++ {
		out = append(out, s.Pattern(s.EntryIndex(i)))
	}
	return out
}

func TestFuzzyRanking(t *testing.T) {
	e := newRunning(t, Config{SortResults: true})
	pushAll(e, "apple", "apricot", "banana")
	e.SetQuery("ap")
	e.Flush()

	snap := e.Snapshot()
	require.Equal(t, 2, snap.MatchedCount())
	assert.Equal(t, 3, snap.TotalCount())

	// both match at the same positions; the tie breaks on insertion order
	assert.Equal(t, []string{"apple", "apricot"}, matchedPatterns(snap))

	ent := snap.Entry(0)
	assert.Equal(t, []int{0, 1}, ent.Highlights, "highlights sit on the a and p bytes")
}

func TestSuffixAtom(t *testing.T) {
	e := newRunning(t, Config{SortResults: true})
	pushAll(e, "foo.rs", "bar.rs", "README.md")
	e.SetQuery("rs$")
	e.Flush()

	snap := e.Snapshot()
	require.Equal(t, 2, snap.MatchedCount())
	assert.ElementsMatch(t, []string{"foo.rs", "bar.rs"}, matchedPatterns(snap))
}

func TestNegatedPrefix(t *testing.T) {
	e := newRunning(t, Config{SortResults: true})
	pushAll(e, "alpha", "beta")

	e.SetQuery("!^a")
	e.Flush()
	snap := e.Snapshot()
	require.Equal(t, 1, snap.MatchedCount())
	assert.Equal(t, "beta", snap.Pattern(snap.EntryIndex(0)))
	assert.Empty(t, snap.Entry(0).Highlights, "negation-only matches carry no highlights")

	e.SetQuery("^a")
	e.Flush()
	snap = e.Snapshot()
	require.Equal(t, 1, snap.MatchedCount())
	assert.Equal(t, "alpha", snap.Pattern(snap.EntryIndex(0)))
}

func TestRankStability(t *testing.T) {
	// items of equal score order by item index regardless of how the
	// pushes interleaved with queries
	e := newRunning(t, Config{SortResults: true})
	pushAll(e, "cc", "cb")
	e.SetQuery("c")
	e.Flush()
	pushAll(e, "ca")
	e.Flush()

	snap := e.Snapshot()
	require.Equal(t, 3, snap.MatchedCount())
	assert.Equal(t, uint32(0), snap.EntryIndex(0))
	assert.Equal(t, uint32(1), snap.EntryIndex(1))
	assert.Equal(t, uint32(2), snap.EntryIndex(2))
}

func TestReverseItemsFlipsTieBreak(t *testing.T) {
	e := newRunning(t, Config{SortResults: true, ReverseItems: true})
	pushAll(e, "aa", "ab")
	e.SetQuery("a")
	e.Flush()

	snap := e.Snapshot()
	require.Equal(t, 2, snap.MatchedCount())
	assert.Equal(t, uint32(1), snap.EntryIndex(0))
	assert.Equal(t, uint32(0), snap.EntryIndex(1))
}

func TestInsertionOrderWhenUnsorted(t *testing.T) {
	e := newRunning(t, Config{SortResults: false})
	pushAll(e, "xbc", "abc", "bc")
	e.SetQuery("bc")
	e.Flush()

	assert.Equal(t, []string{"xbc", "abc", "bc"}, matchedPatterns(e.Snapshot()))
}

func TestSmartCase(t *testing.T) {
	e := newRunning(t, Config{Case: CaseSmart})
	pushAll(e, "Makefile", "makefile")

	e.SetQuery("make")
	e.Flush()
	assert.Equal(t, 2, e.Snapshot().MatchedCount(), "lowercase query matches both cases")

	e.SetQuery("Make")
	e.Flush()
	snap := e.Snapshot()
	require.Equal(t, 1, snap.MatchedCount(), "uppercase in the query forces case sensitivity")
	assert.Equal(t, "Makefile", snap.Pattern(snap.EntryIndex(0)))
}

func TestNormalizationSmart(t *testing.T) {
	e := newRunning(t, Config{Normalization: NormSmart})
	pushAll(e, "café")
	e.SetQuery("cafe")
	e.Flush()
	assert.Equal(t, 1, e.Snapshot().MatchedCount(), "ASCII query folds diacritics in the haystack")

	e.SetQuery("café")
	e.Flush()
	assert.Equal(t, 1, e.Snapshot().MatchedCount())
}

func TestEmptyQueryMatchesAll(t *testing.T) {
	e := newRunning(t, Config{SortResults: true})
	pushAll(e, "one", "two")
	e.Flush()

	snap := e.Snapshot()
	assert.Equal(t, 2, snap.MatchedCount())
	assert.Empty(t, snap.Entry(0).Highlights)
}

func TestSnapshotSequenceMonotonic(t *testing.T) {
	e := newRunning(t, Config{})
	var last uint64
	for i := 0; i < 10; i++ {
		e.Push("item", "item")
		e.Flush()
		seq := e.Snapshot().Sequence()
		assert.GreaterOrEqual(t, seq, last)
		last = seq
	}
}

func TestRestartInvalidatesGeneration(t *testing.T) {
	e := newRunning(t, Config{})
	pushAll(e, "a", "b")
	e.Flush()
	old := e.Snapshot()
	require.Equal(t, 2, old.TotalCount())

	gen := e.Restart()
	assert.Equal(t, gen, e.Generation())
	e.Flush()

	snap := e.Snapshot()
	assert.Equal(t, 0, snap.TotalCount())
	assert.NotEqual(t, old.Generation(), snap.Generation())

	// the old snapshot still reads consistently
	assert.Equal(t, 2, old.TotalCount())
	assert.Equal(t, "a", *old.Item(0))
}

func TestRankOfItem(t *testing.T) {
	e := newRunning(t, Config{SortResults: true})
	pushAll(e, "aaa", "zzz", "aab")
	e.SetQuery("aa")
	e.Flush()

	snap := e.Snapshot()
	rank, ok := snap.RankOfItem(2)
	require.True(t, ok)
	assert.Equal(t, snap.EntryIndex(rank), uint32(2))

	_, ok = snap.RankOfItem(1)
	assert.False(t, ok, "zzz does not match aa")
}

func TestConcurrentPushes(t *testing.T) {
	e := newRunning(t, Config{SortResults: true})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			e.Push("stream", "stream")
		}
	}()
	e.SetQuery("str")
	<-done

	deadline := time.Now().Add(5 * time.Second)
	for e.Snapshot().MatchedCount() < 5000 {
		if time.Now().After(deadline) {
			t.Fatalf("matcher never caught up: %d matched", e.Snapshot().MatchedCount())
		}
		e.Flush()
	}
	assert.Equal(t, 5000, e.Snapshot().TotalCount())
}
