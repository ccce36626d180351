// Package matcher defines the contract between the picker engine and the
// fuzzy match engine, and ships a default in-process implementation that
// scans items in parallel chunks and publishes immutable ranked snapshots.
package matcher

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	pdebug "github.com/lestrrat-go/pdebug"
	"github.com/peco/winnow/query"
)

// Entry is one ranked match: the stable item index, its score, and the
// byte offsets of highlighted positions in the item's pattern string.
type Entry struct {
	Index      uint32
	Score      int
	Highlights []int
}

// Snapshot is an immutable view of the match state at one publication
// point. Accessors may be called freely from the engine thread for the
// duration of one frame.
type Snapshot[T any] interface {
	// TotalCount returns the number of items pushed so far.
	TotalCount() int

	// MatchedCount returns the number of entries matching the query.
	MatchedCount() int

	// Entry returns the i-th ranked entry, 0 <= i < MatchedCount().
	Entry(i int) Entry

	// EntryIndex returns the stable item index of the i-th ranked entry.
	EntryIndex(i int) uint32

	// Item returns a read reference to the item at the given stable index.
	Item(index uint32) *T

	// Pattern returns the matcher-visible string for the item.
	Pattern(index uint32) string

	// RankOfItem returns the rank of the item with the given index in
	// this snapshot, if it matched.
	RankOfItem(index uint32) (int, bool)

	// Sequence is the publication sequence number; later snapshots have
	// strictly larger sequences.
	Sequence() uint64

	// Generation identifies the matcher generation (bumped by Restart)
	// this snapshot belongs to.
	Generation() uint64
}

// Matcher is the collaborator contract the picker engine requires. The
// default implementation is Engine; anything satisfying this interface
// (for example a binding to an external match service) can be swapped in.
type Matcher[T any] interface {
	// Push moves an item into the matcher together with the string the
	// query is matched against, returning the assigned stable index.
	Push(item T, pattern string) uint32

	// SetQuery replaces the active query. The matcher republishes a
	// snapshot eventually afterwards.
	SetQuery(q string)

	// Snapshot returns the most recently published snapshot.
	Snapshot() Snapshot[T]

	// Restart discards all items and the query, and returns the new
	// generation number. Pushes tagged with older generations become
	// no-ops at the injector layer.
	Restart() uint64

	// Generation returns the current generation number.
	Generation() uint64
}

// CaseMode selects how case is handled during matching.
type CaseMode int

const (
	CaseSmart   CaseMode = iota // case-insensitive unless the atom has an uppercase letter
	CaseIgnore                  // always case-insensitive
	CaseRespect                 // always case-sensitive
)

// NormMode selects whether latin diacritics in the haystack are folded to
// their base characters.
type NormMode int

const (
	NormSmart NormMode = iota // fold unless the atom itself contains non-ASCII
	NormNever
)

// Config tunes the default engine.
type Config struct {
	Case          CaseMode
	Normalization NormMode

	// MatchPaths biases scoring towards matches after path separators.
	MatchPaths bool

	// PreferPrefix rewards matches close to the start of the pattern.
	PreferPrefix bool

	// SortResults ranks by descending score; when false, matches keep
	// insertion order.
	SortResults bool

	// ReverseItems flips the item-index tie break (and the insertion
	// order when SortResults is false).
	ReverseItems bool

	// Workers is the size of the scan pool. Defaults to GOMAXPROCS.
	Workers int
}

// Engine is the default Matcher implementation.
type Engine[T any] struct {
	cfg Config

	mutex    sync.Mutex
	store    *store[T]
	queryStr string
	atoms    []query.Atom
	gen      uint64
	inputSeq uint64 // bumped on every mutation that needs a republish
	pubSeq   uint64 // inputSeq of the latest published snapshot
	cond     *sync.Cond

	notifyCh chan struct{}
	snap     atomic.Pointer[snapshot[T]]
}

// New creates an Engine. Run must be started for snapshots to be
// republished after mutations.
func New[T any](cfg Config) *Engine[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	e := &Engine[T]{
		cfg:      cfg,
		store:    newStore[T](),
		notifyCh: make(chan struct{}, 1),
	}
	e.cond = sync.NewCond(&e.mutex)
	e.snap.Store(&snapshot[T]{store: e.store})
	return e
}

// Run executes the republish loop until the context is canceled. It is
// normally started once by the picker that owns the engine.
func (e *Engine[T]) Run(ctx context.Context) error {
	if pdebug.Enabled {
		g := pdebug.Marker("matcher.Engine.Run")
		defer g.End()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.notifyCh:
			e.recompute()
		}
	}
}

func (e *Engine[T]) notify() {
	select {
	case e.notifyCh <- struct{}{}:
	default:
	}
}

// Push implements Matcher.
func (e *Engine[T]) Push(item T, pattern string) uint32 {
	e.mutex.Lock()
	idx := e.store.push(item, pattern)
	e.inputSeq++
	e.mutex.Unlock()
	e.notify()
	return idx
}

// SetQuery implements Matcher.
func (e *Engine[T]) SetQuery(q string) {
	e.mutex.Lock()
	e.queryStr = q
	e.atoms = query.Parse(q)
	e.inputSeq++
	e.mutex.Unlock()
	e.notify()
}

// Snapshot implements Matcher.
func (e *Engine[T]) Snapshot() Snapshot[T] {
	return e.snap.Load()
}

// Generation implements Matcher.
func (e *Engine[T]) Generation() uint64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.gen
}

// Restart implements Matcher. All items and the query are dropped; the
// previous generation's snapshots stay valid for readers still holding
// them because they reference the old store.
func (e *Engine[T]) Restart() uint64 {
	e.mutex.Lock()
	e.gen++
	gen := e.gen
	e.store = newStore[T]()
	e.queryStr = ""
	e.atoms = nil
	e.inputSeq++
	e.mutex.Unlock()
	e.notify()
	return gen
}

// Flush blocks until a snapshot covering every mutation made before the
// call has been published. It exists for tests and for callers that need
// a synchronization point; the engine itself never waits on the matcher.
func (e *Engine[T]) Flush() {
	e.mutex.Lock()
	want := e.inputSeq
	for e.pubSeq < want {
		e.cond.Wait()
	}
	e.mutex.Unlock()
}

func (e *Engine[T]) recompute() {
	e.mutex.Lock()
	st := e.store
	atoms := e.atoms
	gen := e.gen
	seq := e.inputSeq
	e.mutex.Unlock()

	n := st.len()
	entries := e.scan(st, atoms, n)

	if e.cfg.SortResults {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Score != entries[j].Score {
				return entries[i].Score > entries[j].Score
			}
			if e.cfg.ReverseItems {
				return entries[i].Index > entries[j].Index
			}
			return entries[i].Index < entries[j].Index
		})
	} else if e.cfg.ReverseItems {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	snap := &snapshot[T]{
		store:   st,
		entries: entries,
		total:   n,
		gen:     gen,
	}

	e.mutex.Lock()
	// A restart may have swapped the store while we were scanning; the
	// stale result would clobber the fresh empty snapshot, so drop it.
	// The pending notify from Restart re-runs us with the new store.
	if gen != e.gen {
		e.mutex.Unlock()
		return
	}
	e.pubSeq = seq
	snap.seq = e.nextPubSeq()
	e.snap.Store(snap)
	e.cond.Broadcast()
	e.mutex.Unlock()
}

var globalSeq uint64

func (e *Engine[T]) nextPubSeq() uint64 {
	return atomic.AddUint64(&globalSeq, 1)
}

// scan matches every stored pattern against the atoms, fanning chunks out
// over the worker pool.
func (e *Engine[T]) scan(st *store[T], atoms []query.Atom, n int) []Entry {
	if n == 0 {
		return nil
	}

	workers := e.cfg.Workers
	per := (n + workers - 1) / workers
	if per < chunkSize {
		per = chunkSize
	}

	type result struct {
		order   int
		entries []Entry
	}

	var wg sync.WaitGroup
	resultCh := make(chan result, workers)
	order := 0
	for lo := 0; lo < n; lo += per {
		hi := lo + per
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(order, lo, hi int) {
			defer wg.Done()
			var entries []Entry
			for i := lo; i < hi; i++ {
				idx := uint32(i)
				if ent, ok := e.matchOne(st.pattern(idx), idx, atoms); ok {
					entries = append(entries, ent)
				}
			}
			resultCh <- result{order: order, entries: entries}
		}(order, lo, hi)
		order++
	}
	wg.Wait()
	close(resultCh)

	parts := make([][]Entry, order)
	for r := range resultCh {
		parts[r.order] = r.entries
	}
	var entries []Entry
	for _, p := range parts {
		entries = append(entries, p...)
	}
	return entries
}
