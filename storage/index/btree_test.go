package index

import (
	"fmt"
	"math/rand"
	"testing"

	"coredb/buffer"
	"coredb/disk"
	"coredb/transaction"

	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) *BTree {
	t.Helper()
	pool := buffer.NewBufferPoolManager(64, 2, disk.NewMemoryManager())
	// leaf_max=2, internal_max=3, matching the spec's worked example.
	tr, err := New(pool, "t", 2, 1, 3, 2)
	require.NoError(t, err)
	return tr
}

func ridOf(k int) transaction.RID { return transaction.RID{PageID: uint64(k)} }

func TestBTree_InsertFindDuplicateRejected(t *testing.T) {
	tr := newTestTree(t)
	ok, err := tr.Insert("1", ridOf(1))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = tr.Insert("1", ridOf(2))
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := tr.Find("1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ridOf(1), v)
}

// TestBTree_S3 reproduces the spec scenario: leaf_max=2, internal_max=3,
// insert keys 1..6 in order, then delete them back out in a different
// order, checking the tree is always internally consistent.
func TestBTree_S3(t *testing.T) {
	tr := newTestTree(t)
	for i := 1; i <= 6; i++ {
		ok, err := tr.Insert(fmt.Sprint(i), ridOf(i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	for i := 1; i <= 6; i++ {
		v, ok, err := tr.Find(fmt.Sprint(i))
		require.NoError(t, err)
		require.True(t, ok, "key %d", i)
		require.Equal(t, ridOf(i), v)
	}
	assertSorted(t, tr)

	order := []int{4, 1, 6, 2, 5, 3}
	for _, k := range order {
		ok, err := tr.Delete(fmt.Sprint(k))
		require.NoError(t, err)
		require.True(t, ok, "delete %d", k)
		_, ok, err = tr.Find(fmt.Sprint(k))
		require.NoError(t, err)
		require.False(t, ok)
		assertSorted(t, tr)
	}
}

// TestBTree_S4 reproduces the spec scenario: seek to key=3 and iterate to
// the end, expecting the remaining keys in ascending order.
func TestBTree_S4(t *testing.T) {
	tr := newTestTree(t)
	for i := 1; i <= 6; i++ {
		ok, err := tr.Insert(fmt.Sprint(i), ridOf(i))
		require.NoError(t, err)
		require.True(t, ok)
	}

	it, err := tr.Seek("3")
	require.NoError(t, err)
	defer it.Close()
	got := []string{}
	for it.Valid() {
		got = append(got, it.Key())
		it.Next()
	}
	require.Equal(t, []string{"3", "4", "5", "6"}, got)
}

func TestBTree_ManyInsertsAndRandomDeletes(t *testing.T) {
	pool := buffer.NewBufferPoolManager(256, 2, disk.NewMemoryManager())
	tr, err := New(pool, "big", 4, 2, 5, 3)
	require.NoError(t, err)
	const n = 500

	keys := rand.Perm(n)
	for _, k := range keys {
		ok, err := tr.Insert(fmt.Sprintf("%05d", k), ridOf(k*10))
		require.NoError(t, err)
		require.True(t, ok)
	}
	for i := 0; i < n; i++ {
		v, ok, err := tr.Find(fmt.Sprintf("%05d", i))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, ridOf(i*10), v)
	}
	assertSorted(t, tr)

	deleteOrder := rand.Perm(n)
	for _, k := range deleteOrder {
		ok, err := tr.Delete(fmt.Sprintf("%05d", k))
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := tr.Find(fmt.Sprintf("%05d", 0))
	require.NoError(t, err)
	require.False(t, ok)
}

// TestBTree_Reopen rebuilds a BTree handle over an existing pool from the
// header page's stored root, matching the New/Open symmetry storage/heap
// uses for its table heaps.
func TestBTree_Reopen(t *testing.T) {
	pool := buffer.NewBufferPoolManager(64, 2, disk.NewMemoryManager())
	tr, err := New(pool, "reopen", 2, 1, 3, 2)
	require.NoError(t, err)
	for i := 1; i <= 6; i++ {
		ok, err := tr.Insert(fmt.Sprint(i), ridOf(i))
		require.NoError(t, err)
		require.True(t, ok)
	}

	reopened, err := Open(pool, "reopen", 2, 1, 3, 2)
	require.NoError(t, err)
	v, ok, err := reopened.Find("4")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ridOf(4), v)
}

func assertSorted(t *testing.T, tr *BTree) {
	t.Helper()
	it, err := tr.First()
	require.NoError(t, err)
	defer it.Close()
	prev := ""
	first := true
	for it.Valid() {
		if !first {
			require.Greater(t, it.Key(), prev)
		}
		first = false
		prev = it.Key()
		it.Next()
	}
}
