package catalog

import (
	"sync"

	"coredb/buffer"
	"coredb/storage/heap"
	"coredb/storage/index"

	"github.com/pkg/errors"
)

// TableOID and IndexOID name catalog objects. Grounded on catalog/catalog.go.
type TableOID uint32
type IndexOID uint32

const NullTableOID TableOID = 0
const NullIndexOID IndexOID = 0

// index fanout for every secondary index. Fanout limits a node's key count,
// not its bytes; a node whose keys outgrow its page fails to encode and the
// insert returns an error (see index.encodeNode).
const (
	indexLeafMax     = 32
	indexLeafMin     = 16
	indexInternalMax = 32
	indexInternalMin = 16
)

// TableInfo names a table's schema and its backing heap.
type TableInfo struct {
	Schema  Schema
	Name    string
	Heap    *heap.TableHeap
	OID     TableOID
	catalog *InMemCatalog
}

// IndexInfo names a secondary index and the table columns it covers.
type IndexInfo struct {
	Index   *index.BTree
	catalog *InMemCatalog

	IndexName string
	OID       IndexOID
	IsUnique  bool

	Schema        Schema
	TableName     string
	ColumnIndexes []int
}

// Catalog owns every table and index in the database. Grounded on
// catalog/catalog.go's Catalog interface and InMemCatalog, adapted to build
// heap.TableHeap / index.BTree instances instead of a pager-backed
// structures.TableHeap / btree.BTree, and to drop the transaction parameter
// DDL took in the teacher (schema changes here are not under MVCC).
type Catalog interface {
	CreateTable(tableName string, schema Schema) (*TableInfo, error)
	GetTable(name string) *TableInfo
	GetTableByOID(oid TableOID) *TableInfo

	CreateBtreeIndex(indexName, tableName string, columnIndexes []int, isUnique bool) (*IndexInfo, error)
	GetIndex(indexName, tableName string) *IndexInfo
	GetIndexByOID(oid IndexOID) *IndexInfo
	GetTableIndexes(tableName string) []*IndexInfo
}

type InMemCatalog struct {
	mu sync.Mutex

	tables     map[TableOID]*TableInfo
	tableNames map[string]TableOID

	indexes    map[IndexOID]*IndexInfo
	indexNames map[string]map[string]IndexOID

	nextTableOID TableOID
	nextIndexOID IndexOID

	pool buffer.Pool
}

func NewCatalog(pool buffer.Pool) *InMemCatalog {
	return &InMemCatalog{
		tables:     map[TableOID]*TableInfo{},
		tableNames: map[string]TableOID{},
		indexes:    map[IndexOID]*IndexInfo{},
		indexNames: map[string]map[string]IndexOID{},
		pool:       pool,
	}
}

func (c *InMemCatalog) CreateTable(tableName string, schema Schema) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tableNames[tableName]; ok {
		return nil, errors.Errorf("catalog: table %q already exists", tableName)
	}

	h, err := heap.New(c.pool)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: creating table heap")
	}

	c.nextTableOID++
	oid := c.nextTableOID
	info := &TableInfo{Schema: schema, Name: tableName, Heap: h, OID: oid, catalog: c}
	c.tables[oid] = info
	c.tableNames[tableName] = oid
	c.indexNames[tableName] = map[string]IndexOID{}
	return info, nil
}

func (c *InMemCatalog) GetTable(name string) *TableInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	oid, ok := c.tableNames[name]
	if !ok {
		return nil
	}
	return c.tables[oid]
}

func (c *InMemCatalog) GetTableByOID(oid TableOID) *TableInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tables[oid]
}

// CreateBtreeIndex builds a new index over columnIndexes, seeding it by
// scanning the table's current contents, matching the teacher's
// CreateBtreeIndex/NewTableIterator seeding pattern.
func (c *InMemCatalog) CreateBtreeIndex(indexName, tableName string, columnIndexes []int, isUnique bool) (*IndexInfo, error) {
	c.mu.Lock()
	tableOID, ok := c.tableNames[tableName]
	if !ok {
		c.mu.Unlock()
		return nil, errors.Errorf("catalog: cannot index nonexistent table %q", tableName)
	}
	table := c.tables[tableOID]
	if _, ok := c.indexNames[tableName][indexName]; ok {
		c.mu.Unlock()
		return nil, errors.Errorf("catalog: index %q already exists on table %q", indexName, tableName)
	}

	tableCols := table.Schema.GetColumns()
	indexCols := make([]Column, len(columnIndexes))
	for i, idx := range columnIndexes {
		indexCols[i] = tableCols[idx]
	}
	keySchema := NewSchema(indexCols)
	c.mu.Unlock()

	tree, err := index.New(c.pool, tableName+"."+indexName, indexLeafMax, indexLeafMin, indexInternalMax, indexInternalMin)
	if err != nil {
		return nil, errors.Wrap(err, "catalog: creating index tree")
	}

	seed := &IndexInfo{catalog: c, TableName: tableName, ColumnIndexes: columnIndexes, IsUnique: isUnique}
	it := table.Heap.Iterator()
	for {
		rid, data, ok := it.Next()
		if !ok {
			break
		}
		tuple := Tuple{Data: data, Rid: rid}
		key := seed.keyFor(&tuple)
		if _, err := tree.Insert(key, rid); err != nil {
			return nil, errors.Wrap(err, "catalog: seeding index tree")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextIndexOID++
	oid := c.nextIndexOID
	info := &IndexInfo{
		Schema:        keySchema,
		IndexName:     indexName,
		TableName:     tableName,
		OID:           oid,
		Index:         tree,
		catalog:       c,
		ColumnIndexes: columnIndexes,
		IsUnique:      isUnique,
	}
	c.indexes[oid] = info
	c.indexNames[tableName][indexName] = oid
	return info, nil
}

func (c *InMemCatalog) GetIndex(indexName, tableName string) *IndexInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	oid, ok := c.indexNames[tableName][indexName]
	if !ok {
		return nil
	}
	return c.indexes[oid]
}

func (c *InMemCatalog) GetIndexByOID(oid IndexOID) *IndexInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexes[oid]
}

func (c *InMemCatalog) GetTableIndexes(tableName string) []*IndexInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*IndexInfo
	for _, oid := range c.indexNames[tableName] {
		out = append(out, c.indexes[oid])
	}
	return out
}
