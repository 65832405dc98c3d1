// Package tt implements the clustered transposition table, §4.F: four
// 16-byte entries per cluster, generation-aware replacement, and lock-free
// torn-read-tolerant probing. Grounded in mess's `pkg/search/tt/table.go`
// (other_examples/) for the quality/generation replacement concept and the
// overall Store/Probe shape, and in the teacher's own
// `pkg/search/transposition.go` for the lock-free-via-atomics approach
// (the teacher CAS's a whole *node pointer per slot; this package instead
// keeps each entry inline in two atomic words per spec's fixed-size
// cluster layout, closer to mess's array-of-Entry table than the
// teacher's linked-pointer one).
package tt

import (
	"math/bits"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"go.uber.org/atomic"
)

// Bound is the kind of score a stored entry carries.
type Bound uint8

const (
	Exact Bound = iota
	Lower
	Upper
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	default:
		return "?"
	}
}

// entriesPerCluster is fixed by §4.F: four entries share one cache line's
// worth of table, so a single cluster lookup only ever touches one line.
const entriesPerCluster = 4

// slot holds one 16-byte entry as two atomic 64-bit words: data carries the
// entry fields in the clear, key carries hash^data. A reader recomputes
// hash = key^data and compares it against the probed hash; any torn write
// between the two words (data updated, key not yet, or vice versa) makes
// that recomputation fail, so a torn read is simply treated as a miss --
// exactly the tolerance §4.F's thread-safety note requires, without a lock.
type slot struct {
	key  atomic.Uint64
	data atomic.Uint64
}

// Cluster is one entriesPerCluster-entry bucket, 64 bytes -- one cache line
// on essentially every target architecture.
type Cluster struct {
	slots [entriesPerCluster]slot
}

// Table is the clustered transposition table.
type Table struct {
	clusters   []Cluster
	mask       uint64
	generation atomic.Uint32
}

// EntrySize is the size in bytes of one stored entry (two 8-byte words).
const EntrySize = 16

// New allocates a table with floor_pow2(sizeMB*2^20 / (EntrySize*entriesPerCluster))
// clusters, zeroed (so every slot starts out as the sentinel "empty": a
// zero generation field never produced by NewSearch, which always yields a
// nonzero value).
func New(sizeMB int) *Table {
	clusterBytes := EntrySize * entriesPerCluster
	want := (sizeMB * 1024 * 1024) / clusterBytes
	if want < 1 {
		want = 1
	}
	n := 1 << (63 - bits.LeadingZeros64(uint64(want)))
	t := &Table{
		clusters: make([]Cluster, n),
		mask:     uint64(n) - 1,
	}
	t.generation.Store(1) // 0 is reserved to mean "slot never written"
	return t
}

// Clusters returns the number of clusters allocated.
func (t *Table) Clusters() int {
	return len(t.clusters)
}

// Size returns the table's footprint in bytes.
func (t *Table) Size() uint64 {
	return uint64(len(t.clusters)) * uint64(EntrySize*entriesPerCluster)
}

// NewSearch advances the generation counter through 1..255, skipping the
// zero value (which is reserved to mean "never written") when it wraps past
// 255. Call once per root search so older entries age out of replacement
// priority without being cleared.
func (t *Table) NewSearch() {
	t.generation.Store(t.generation.Load()%maskGen + 1)
}

func (t *Table) clusterFor(hash board.ZobristHash) *Cluster {
	return &t.clusters[uint64(hash)&t.mask]
}

// packed data field layout, 64 bits: move(32) | score(16) | depth(6) | flag(2) | gen(8).
const (
	shiftMove  = 0
	shiftScore = 32
	shiftDepth = 48
	shiftFlag  = 54
	shiftGen   = 56

	maskMove  = 0xFFFFFFFF
	maskScore = 0xFFFF
	maskDepth = 0x3F
	maskFlag  = 0x3
	maskGen   = 0xFF
)

// maxStoredDepth is the largest depth the 6-bit depth field can carry.
const maxStoredDepth = maskDepth

func packData(move board.Move, score eval.Score, depth int, flag Bound, gen uint32) uint64 {
	if depth > maxStoredDepth {
		depth = maxStoredDepth
	}
	if depth < 0 {
		depth = 0
	}
	return (uint64(move)&maskMove)<<shiftMove |
		(uint64(uint16(score))&maskScore)<<shiftScore |
		(uint64(depth)&maskDepth)<<shiftDepth |
		(uint64(flag)&maskFlag)<<shiftFlag |
		(uint64(gen)&maskGen)<<shiftGen
}

func unpackMove(data uint64) board.Move {
	return board.Move((data >> shiftMove) & maskMove)
}

func unpackScore(data uint64) eval.Score {
	return eval.Score(uint16((data >> shiftScore) & maskScore))
}

func unpackDepth(data uint64) int {
	return int((data >> shiftDepth) & maskDepth)
}

func unpackFlag(data uint64) Bound {
	return Bound((data >> shiftFlag) & maskFlag)
}

func unpackGen(data uint64) uint32 {
	return uint32((data >> shiftGen) & maskGen)
}

// Store inserts or updates the entry for hash, per §4.F's replacement rule.
func (t *Table) Store(hash board.ZobristHash, score eval.Score, move board.Move, depth int, flag Bound) {
	cluster := t.clusterFor(hash)
	gen := t.generation.Load()

	for i := range cluster.slots {
		s := &cluster.slots[i]
		data := s.data.Load()
		if unpackGen(data) == 0 {
			continue // empty, considered below
		}
		if s.key.Load()^data != uint64(hash) {
			continue // different position (or a torn read -- either way, not a match)
		}

		// Same position already stored: update in place if the incoming
		// entry is at least as deep, or newly exact where the stored entry
		// was not.
		if depth >= unpackDepth(data) || (flag == Exact && unpackFlag(data) != Exact) {
			if move == board.NoMove {
				move = unpackMove(data)
			}
			t.write(s, hash, score, move, depth, flag, gen)
		}
		return
	}

	// No match: replace the lowest-value slot, honoring the
	// current-generation-exact-and-much-deeper exception.
	worst := -1
	worstVal := 0
	for i := range cluster.slots {
		s := &cluster.slots[i]
		data := s.data.Load()
		if unpackGen(data) == 0 {
			worst = i
			break // an empty slot is always the best candidate to fill
		}
		if protected(data, gen, depth, flag) {
			continue
		}
		val := replacementValue(data, gen)
		if worst == -1 || val < worstVal {
			worst, worstVal = i, val
		}
	}
	if worst == -1 {
		// every slot is protected; still have to land somewhere, so fall
		// back to the globally lowest-value slot regardless of protection.
		worstVal = 0
		for i := range cluster.slots {
			val := replacementValue(cluster.slots[i].data.Load(), gen)
			if worst == -1 || val < worstVal {
				worst, worstVal = i, val
			}
		}
	}
	t.write(&cluster.slots[worst], hash, score, move, depth, flag, gen)
}

func (t *Table) write(s *slot, hash board.ZobristHash, score eval.Score, move board.Move, depth int, flag Bound, gen uint32) {
	data := packData(move, score, depth, flag, gen)
	s.data.Store(data)
	s.key.Store(uint64(hash) ^ data)
}

// replacementValue implements §4.F's formula: depth*4 + (exact?16:0) - age*2.
func replacementValue(data uint64, currentGen uint32) int {
	age := int(currentGen) - int(unpackGen(data))
	if age < 0 {
		age += 1 << 8 // generation field wrapped
	}
	val := unpackDepth(data)*4 - age*2
	if unpackFlag(data) == Exact {
		val += 16
	}
	return val
}

// protected reports whether data is a current-generation exact entry deep
// enough, relative to an incoming non-exact entry, that §4.F says it must
// not be evicted by it.
func protected(data uint64, currentGen uint32, incomingDepth int, incomingFlag Bound) bool {
	if incomingFlag == Exact {
		return false
	}
	if unpackGen(data) != currentGen {
		return false
	}
	if unpackFlag(data) != Exact {
		return false
	}
	return unpackDepth(data) > incomingDepth+3
}

// Result is the outcome of a successful Probe.
type Result struct {
	Score    eval.Score
	HasScore bool
	Flag     Bound
	Move     board.Move
}

// Probe scans hash's cluster for a verified key match. If found, it
// refreshes the entry's generation (so it survives replacement longer) and
// always returns the stored move and flag; Score/HasScore are populated
// only when the stored depth meets or exceeds the requested depth, per
// §4.F.
func (t *Table) Probe(hash board.ZobristHash, depth int) (Result, bool) {
	cluster := t.clusterFor(hash)
	gen := t.generation.Load()

	for i := range cluster.slots {
		s := &cluster.slots[i]
		data := s.data.Load()
		if unpackGen(data) == 0 {
			continue
		}
		if s.key.Load()^data != uint64(hash) {
			continue
		}

		if unpackGen(data) != gen {
			refreshed := packData(unpackMove(data), unpackScore(data), unpackDepth(data), unpackFlag(data), gen)
			s.data.Store(refreshed)
			s.key.Store(uint64(hash) ^ refreshed)
		}

		r := Result{Flag: unpackFlag(data), Move: unpackMove(data)}
		if unpackDepth(data) >= depth {
			r.Score = unpackScore(data)
			r.HasScore = true
		}
		return r, true
	}
	return Result{}, false
}

// Prefetch is a best-effort hint that hash's cluster will likely be probed
// soon. Go has no portable cache-prefetch intrinsic without assembly, so
// this simply touches the cluster to pull it into cache via the ordinary
// memory read, the same best-effort a plain load gives on most platforms.
func (t *Table) Prefetch(hash board.ZobristHash) {
	cluster := t.clusterFor(hash)
	for i := range cluster.slots {
		_ = cluster.slots[i].data.Load()
	}
}

// Hashfull returns a permille (0-1000) estimate of table occupancy,
// sampling up to 1000 clusters per §4.F.
func (t *Table) Hashfull() int {
	samples := len(t.clusters)
	if samples > 1000 {
		samples = 1000
	}
	if samples == 0 {
		return 0
	}

	used, total := 0, 0
	for i := 0; i < samples; i++ {
		for j := range t.clusters[i].slots {
			total++
			if unpackGen(t.clusters[i].slots[j].data.Load()) != 0 {
				used++
			}
		}
	}
	return used * 1000 / total
}
