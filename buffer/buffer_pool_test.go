package buffer

import (
	"testing"

	"coredb/disk"

	"github.com/stretchr/testify/require"
)

func TestBufferPoolManager_NewPageAndFetch(t *testing.T) {
	dm := disk.NewMemoryManager()
	bp := NewBufferPoolManager(4, 2, dm)

	p, err := bp.NewPage()
	require.NoError(t, err)
	copy(p.Data(), []byte("hello"))
	require.True(t, bp.Unpin(p.ID(), true))

	fetched, err := bp.FetchPage(p.ID())
	require.NoError(t, err)
	require.Equal(t, byte('h'), fetched.Data()[0])
	require.True(t, bp.Unpin(fetched.ID(), false))
}

func TestBufferPoolManager_FetchDoesNotDirty(t *testing.T) {
	dm := disk.NewMemoryManager()
	bp := NewBufferPoolManager(4, 2, dm)

	p, err := bp.NewPage()
	require.NoError(t, err)
	id := p.ID()
	require.True(t, bp.Unpin(id, false))

	p2, err := bp.FetchPage(id)
	require.NoError(t, err)
	require.False(t, p2.IsDirty())
	require.True(t, bp.Unpin(id, false))
}

func TestBufferPoolManager_UnpinFailsWhenNotResidentOrZero(t *testing.T) {
	dm := disk.NewMemoryManager()
	bp := NewBufferPoolManager(4, 2, dm)

	require.False(t, bp.Unpin(999, false))

	p, err := bp.NewPage()
	require.NoError(t, err)
	require.True(t, bp.Unpin(p.ID(), false))
	require.False(t, bp.Unpin(p.ID(), false))
}

func TestBufferPoolManager_EvictsWhenFull(t *testing.T) {
	dm := disk.NewMemoryManager()
	bp := NewBufferPoolManager(2, 2, dm)

	p1, err := bp.NewPage()
	require.NoError(t, err)
	require.True(t, bp.Unpin(p1.ID(), false))

	p2, err := bp.NewPage()
	require.NoError(t, err)
	require.True(t, bp.Unpin(p2.ID(), false))

	// pool is full but both frames are evictable, so a third NewPage must
	// evict one of them rather than fail.
	p3, err := bp.NewPage()
	require.NoError(t, err)
	require.NotNil(t, p3)
	require.True(t, bp.Unpin(p3.ID(), false))
}

func TestBufferPoolManager_ExhaustedWhenAllPinned(t *testing.T) {
	dm := disk.NewMemoryManager()
	bp := NewBufferPoolManager(2, 2, dm)

	_, err := bp.NewPage()
	require.NoError(t, err)
	_, err = bp.NewPage()
	require.NoError(t, err)

	_, err = bp.NewPage()
	require.Error(t, err)
}

func TestBufferPoolManager_DeletePageFailsWhilePinned(t *testing.T) {
	dm := disk.NewMemoryManager()
	bp := NewBufferPoolManager(2, 2, dm)

	p, err := bp.NewPage()
	require.NoError(t, err)
	require.False(t, bp.DeletePage(p.ID()))

	require.True(t, bp.Unpin(p.ID(), false))
	require.True(t, bp.DeletePage(p.ID()))
}

// TestBufferPoolManager_PoolSizeAccounting is property 1 from the spec:
// replacer.size() + pinned_count + free_count == pool_size at all times.
func TestBufferPoolManager_PoolSizeAccounting(t *testing.T) {
	const poolSize = 5
	dm := disk.NewMemoryManager()
	bp := NewBufferPoolManager(poolSize, 2, dm)

	ids := make([]disk.PageID, 0)
	for i := 0; i < 3; i++ {
		p, err := bp.NewPage()
		require.NoError(t, err)
		ids = append(ids, p.ID())
	}

	pinned := len(ids)
	evictable := 0
	require.Equal(t, poolSize, pinned+evictable+bp.EmptyFrames())

	for _, id := range ids {
		require.True(t, bp.Unpin(id, false))
	}
	pinned = 0
	evictable = len(ids)
	require.Equal(t, poolSize, pinned+evictable+bp.EmptyFrames())
	require.Equal(t, evictable, bp.replacer.Size())
}
