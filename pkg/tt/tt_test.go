package tt_test

import (
	"testing"

	"github.com/kestrelchess/kestrel/pkg/board"
	"github.com/kestrelchess/kestrel/pkg/eval"
	"github.com/kestrelchess/kestrel/pkg/tt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSizesToPowerOfTwoClusters(t *testing.T) {
	table := tt.New(1)
	n := table.Clusters()
	assert.Equal(t, 0, n&(n-1), "cluster count %d should be a power of two", n)
}

func TestNewClampsToAtLeastOneCluster(t *testing.T) {
	table := tt.New(0)
	assert.Equal(t, 1, table.Clusters())
}

func TestStoreThenProbeRoundTrips(t *testing.T) {
	table := tt.New(1)
	table.NewSearch()

	hash := board.ZobristHash(0x1234567890ABCDEF)
	move := board.NewMove(board.E2, board.E4, board.NoPiece, board.Quiet)
	table.Store(hash, eval.Score(123), move, 6, tt.Exact)

	r, ok := table.Probe(hash, 6)
	require.True(t, ok)
	assert.True(t, r.HasScore)
	assert.Equal(t, eval.Score(123), r.Score)
	assert.Equal(t, tt.Exact, r.Flag)
	assert.Equal(t, move, r.Move)
}

func TestProbeMissesOnDifferentHash(t *testing.T) {
	table := tt.New(1)
	table.NewSearch()

	table.Store(board.ZobristHash(1), eval.Score(1), board.NoMove, 4, tt.Exact)
	_, ok := table.Probe(board.ZobristHash(2), 4)
	assert.False(t, ok)
}

func TestProbeWithoutScoreWhenStoredDepthTooShallow(t *testing.T) {
	table := tt.New(1)
	table.NewSearch()

	hash := board.ZobristHash(42)
	table.Store(hash, eval.Score(77), board.NoMove, 3, tt.Lower)

	r, ok := table.Probe(hash, 10)
	require.True(t, ok)
	assert.False(t, r.HasScore)
	assert.Equal(t, tt.Lower, r.Flag)
}

func TestStoreUpdatesInPlaceOnDeeperEntry(t *testing.T) {
	table := tt.New(1)
	table.NewSearch()

	hash := board.ZobristHash(7)
	m1 := board.NewMove(board.A2, board.A4, board.NoPiece, board.Quiet)
	m2 := board.NewMove(board.B2, board.B4, board.NoPiece, board.Quiet)

	table.Store(hash, eval.Score(10), m1, 4, tt.Lower)
	table.Store(hash, eval.Score(20), m2, 8, tt.Lower)

	r, ok := table.Probe(hash, 8)
	require.True(t, ok)
	assert.Equal(t, eval.Score(20), r.Score)
	assert.Equal(t, m2, r.Move)
}

func TestStorePreservesExistingMoveWhenIncomingHasNone(t *testing.T) {
	table := tt.New(1)
	table.NewSearch()

	hash := board.ZobristHash(99)
	m1 := board.NewMove(board.C2, board.C4, board.NoPiece, board.Quiet)

	table.Store(hash, eval.Score(10), m1, 4, tt.Lower)
	table.Store(hash, eval.Score(15), board.NoMove, 6, tt.Lower)

	r, ok := table.Probe(hash, 6)
	require.True(t, ok)
	assert.Equal(t, m1, r.Move)
}

func TestStoreFillsEmptySlotsBeforeReplacing(t *testing.T) {
	table := tt.New(0) // smallest possible table: exactly one cluster
	table.NewSearch()

	// Four distinct hashes, all landing in the table's single cluster.
	base := board.ZobristHash(0)
	for i := 0; i < 4; i++ {
		table.Store(base+board.ZobristHash(i)<<40, eval.Score(i), board.NoMove, 1, tt.Exact)
	}
	for i := 0; i < 4; i++ {
		_, ok := table.Probe(base+board.ZobristHash(i)<<40, 1)
		assert.True(t, ok, "entry %d should still be present", i)
	}
}

func TestHashfullGrowsAsEntriesAreStored(t *testing.T) {
	table := tt.New(1)
	table.NewSearch()
	assert.Equal(t, 0, table.Hashfull())

	// Hashfull samples 1000 clusters of 4 slots and reports permille, so
	// one stored entry (1 of 4000 slots) still rounds down to 0; four
	// entries in four sampled clusters reach 1.
	for i := 0; i < 4; i++ {
		table.Store(board.ZobristHash(55+i), eval.Score(1), board.NoMove, 1, tt.Exact)
	}
	assert.Greater(t, table.Hashfull(), 0)
}

func TestPrefetchDoesNotPanicOnEmptyTable(t *testing.T) {
	table := tt.New(1)
	assert.NotPanics(t, func() {
		table.Prefetch(board.ZobristHash(123))
	})
}
