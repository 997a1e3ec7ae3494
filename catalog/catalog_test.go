package catalog

import (
	"fmt"
	"testing"

	"coredb/buffer"
	"coredb/catalog/dbtype"
	"coredb/disk"

	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T) *InMemCatalog {
	t.Helper()
	pool := buffer.NewBufferPoolManager(32, 2, disk.NewMemoryManager())
	return NewCatalog(pool)
}

func personSchema() Schema {
	return NewSchema([]Column{
		NewColumn("id", dbtype.Integer()),
		NewColumn("name", dbtype.FixedChar(20)),
	})
}

func TestCatalog_CreateAndGetTable(t *testing.T) {
	c := newTestCatalog(t)
	info, err := c.CreateTable("person", personSchema())
	require.NoError(t, err)
	require.Equal(t, "person", info.Name)

	require.Same(t, info, c.GetTable("person"))
	require.Same(t, info, c.GetTableByOID(info.OID))

	_, err = c.CreateTable("person", personSchema())
	require.Error(t, err)
}

func TestCatalog_InsertReadDeleteTuple(t *testing.T) {
	c := newTestCatalog(t)
	info, err := c.CreateTable("person", personSchema())
	require.NoError(t, err)

	rid, err := info.InsertTupleViaValues([]*dbtype.Value{dbtype.NewInt(1), dbtype.NewFixedChar("alice", 20)})
	require.NoError(t, err)

	tuple, err := info.ReadTuple(rid)
	require.NoError(t, err)
	require.Equal(t, int32(1), tuple.GetValue(info.Schema, 0).AsInterface())

	require.NoError(t, info.DeleteTuple(rid))
	_, err = info.ReadTuple(rid)
	require.Error(t, err)
}

func TestCatalog_IndexSeededFromExistingRows(t *testing.T) {
	c := newTestCatalog(t)
	info, err := c.CreateTable("person", personSchema())
	require.NoError(t, err)

	rids := make(map[int32]struct{})
	for i := int32(0); i < 10; i++ {
		rid, err := info.InsertTupleViaValues([]*dbtype.Value{dbtype.NewInt(i), dbtype.NewFixedChar(fmt.Sprintf("n%d", i), 20)})
		require.NoError(t, err)
		rids[i] = struct{}{}
		_ = rid
	}

	idx, err := c.CreateBtreeIndex("person_pk", "person", []int{0}, true)
	require.NoError(t, err)

	for i := int32(0); i < 10; i++ {
		rid, ok := idx.Lookup([]*dbtype.Value{dbtype.NewInt(i)})
		require.True(t, ok)
		tuple, err := info.ReadTuple(rid)
		require.NoError(t, err)
		require.Equal(t, i, tuple.GetValue(info.Schema, 0).AsInterface())
	}
}

func TestCatalog_IndexStaysInSyncOnMutation(t *testing.T) {
	c := newTestCatalog(t)
	info, err := c.CreateTable("person", personSchema())
	require.NoError(t, err)
	idx, err := c.CreateBtreeIndex("person_pk", "person", []int{0}, true)
	require.NoError(t, err)

	rid, err := info.InsertTupleViaValues([]*dbtype.Value{dbtype.NewInt(5), dbtype.NewFixedChar("e", 20)})
	require.NoError(t, err)

	got, ok := idx.Lookup([]*dbtype.Value{dbtype.NewInt(5)})
	require.True(t, ok)
	require.Equal(t, rid, got)

	require.NoError(t, info.DeleteTuple(rid))
	_, ok = idx.Lookup([]*dbtype.Value{dbtype.NewInt(5)})
	require.False(t, ok)
}

func TestCatalog_NonUniqueIndexAllowsDuplicateKeys(t *testing.T) {
	c := newTestCatalog(t)
	schema := NewSchema([]Column{
		NewColumn("dept", dbtype.FixedChar(10)),
		NewColumn("name", dbtype.FixedChar(20)),
	})
	info, err := c.CreateTable("emp", schema)
	require.NoError(t, err)
	idx, err := c.CreateBtreeIndex("emp_dept", "emp", []int{0}, false)
	require.NoError(t, err)

	_, err = info.InsertTupleViaValues([]*dbtype.Value{dbtype.NewFixedChar("eng", 10), dbtype.NewFixedChar("a", 20)})
	require.NoError(t, err)
	_, err = info.InsertTupleViaValues([]*dbtype.Value{dbtype.NewFixedChar("eng", 10), dbtype.NewFixedChar("b", 20)})
	require.NoError(t, err)

	it := info.Heap.Iterator()
	count := 0
	for {
		_, _, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	require.Equal(t, 2, count)
	require.Len(t, c.GetTableIndexes("emp"), 1)
	_ = idx
}
