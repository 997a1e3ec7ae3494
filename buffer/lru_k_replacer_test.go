package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLRUKReplacer_S1 reproduces scenario S1: K=2, 3 frames (ids 1,2,3, so
// the replacer is sized 4 since ids are 0-based), accesses 1,2,3,1,2, all
// evictable. Frame 3 is the only one with fewer than K accesses so it is
// evicted first.
func TestLRUKReplacer_S1(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	for _, f := range []int{1, 2, 3, 1, 2} {
		r.RecordAccess(f)
	}
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)
	r.SetEvictable(3, true)
	require.Equal(t, 3, r.Size())

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, 3, victim)
	require.Equal(t, 2, r.Size())
}

func TestLRUKReplacer_PrefersOldestAmongUnderK(t *testing.T) {
	r := NewLRUKReplacer(3, 2)
	r.RecordAccess(0)
	r.RecordAccess(1)
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, 0, victim, "frame accessed first among under-k frames should be evicted first")
}

func TestLRUKReplacer_LargestBackwardKDistanceAmongFull(t *testing.T) {
	r := NewLRUKReplacer(2, 2)

	// frame 0: accesses at t=0,1 -> backward-2-distance references t=0
	r.RecordAccess(0)
	r.RecordAccess(0)
	// frame 1: accesses at t=2,3 -> more recent, smaller backward distance
	r.RecordAccess(1)
	r.RecordAccess(1)

	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, 0, victim)
}

func TestLRUKReplacer_SetEvictableNoopWithoutHistory(t *testing.T) {
	r := NewLRUKReplacer(3, 2)
	r.SetEvictable(0, true)
	require.Equal(t, 0, r.Size())
}

func TestLRUKReplacer_RemoveEvictable(t *testing.T) {
	r := NewLRUKReplacer(3, 2)
	r.RecordAccess(0)
	r.SetEvictable(0, true)
	require.Equal(t, 1, r.Size())

	r.Remove(0)
	require.Equal(t, 0, r.Size())
}

func TestLRUKReplacer_RemoveNonEvictablePanics(t *testing.T) {
	r := NewLRUKReplacer(3, 2)
	r.RecordAccess(0)

	require.Panics(t, func() { r.Remove(0) })
}

func TestLRUKReplacer_EvictReturnsFalseWhenNothingEvictable(t *testing.T) {
	r := NewLRUKReplacer(3, 2)
	r.RecordAccess(0)

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestLRUKReplacer_OutOfRangeFrameIDPanics(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	require.Panics(t, func() { r.RecordAccess(5) })
	require.Panics(t, func() { r.SetEvictable(-1, true) })
}
