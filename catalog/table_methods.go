package catalog

import (
	"encoding/binary"

	"coredb/catalog/dbtype"
	"coredb/transaction"

	"github.com/pkg/errors"
)

// InsertTupleViaValues builds a tuple from values, inserts it into the
// table's heap, and keeps every index on the table in sync. Grounded on
// catalog/table_methods.go's InsertTupleViaValues.
func (tbl *TableInfo) InsertTupleViaValues(values []*dbtype.Value) (transaction.RID, error) {
	tuple, err := NewTupleWithSchema(values, tbl.Schema)
	if err != nil {
		return transaction.RID{}, err
	}
	return tbl.InsertTuple(tuple)
}

func (tbl *TableInfo) InsertTuple(tuple *Tuple) (transaction.RID, error) {
	rid, err := tbl.Heap.InsertTuple(tuple.Data)
	if err != nil {
		return transaction.RID{}, errors.Wrap(err, "catalog: inserting tuple")
	}
	tuple.Rid = rid

	for _, idx := range tbl.GetIndexes() {
		if err := idx.insertTupleKey(tuple, rid); err != nil {
			return rid, err
		}
	}
	return rid, nil
}

func (tbl *TableInfo) ReadTuple(rid transaction.RID) (*Tuple, error) {
	data, err := tbl.Heap.ReadTuple(rid)
	if err != nil {
		return nil, err
	}
	return &Tuple{Data: data, Rid: rid}, nil
}

func (tbl *TableInfo) DeleteTuple(rid transaction.RID) error {
	old, err := tbl.ReadTuple(rid)
	if err != nil {
		return err
	}

	for _, idx := range tbl.GetIndexes() {
		if err := idx.deleteTupleKey(old); err != nil {
			return err
		}
	}

	return tbl.Heap.DeleteTuple(rid)
}

// UpdateTuple tries an in-place heap update first and falls back to
// delete-then-reinsert when the new values no longer fit the old slot,
// matching catalog/table_methods.go's UpdateTuple. A delete-then-reinsert
// changes the row's rid, which callers must pick up from the return value.
func (tbl *TableInfo) UpdateTuple(rid transaction.RID, values []*dbtype.Value) (transaction.RID, error) {
	old, err := tbl.ReadTuple(rid)
	if err != nil {
		return transaction.RID{}, err
	}

	newTuple, err := NewTupleWithSchema(values, tbl.Schema)
	if err != nil {
		return transaction.RID{}, err
	}

	fits, err := tbl.Heap.UpdateTuple(rid, newTuple.Data)
	if err != nil {
		return transaction.RID{}, errors.Wrap(err, "catalog: updating tuple")
	}
	if fits {
		newTuple.Rid = rid
		for _, idx := range tbl.GetIndexes() {
			if err := idx.updateTupleKey(old, newTuple); err != nil {
				return rid, err
			}
		}
		return rid, nil
	}

	if err := tbl.DeleteTuple(rid); err != nil {
		return transaction.RID{}, err
	}
	newRid, err := tbl.InsertTupleViaValues(values)
	if err != nil {
		return transaction.RID{}, err
	}
	return newRid, nil
}

func (tbl *TableInfo) GetIndexes() []*IndexInfo {
	return tbl.catalog.GetTableIndexes(tbl.Name)
}

func (idx *IndexInfo) GetTable() *TableInfo {
	return idx.catalog.GetTable(idx.TableName)
}

// keyFor builds this index's encoded key for tuple, appending the row's rid
// when the index is not unique so distinct rows with equal indexed values
// still get distinct keys.
func (idx *IndexInfo) keyFor(tuple *Tuple) string {
	table := idx.GetTable()
	vals := valuesAt(tuple, table.Schema, idx.ColumnIndexes)
	key := EncodeKey(vals)
	if idx.IsUnique {
		return key
	}
	var ridBuf [12]byte
	binary.BigEndian.PutUint64(ridBuf[:8], tuple.Rid.PageID)
	binary.BigEndian.PutUint32(ridBuf[8:], tuple.Rid.SlotIdx)
	return key + string(ridBuf[:])
}

func (idx *IndexInfo) insertTupleKey(tuple *Tuple, rid transaction.RID) error {
	_, err := idx.Index.Insert(idx.keyFor(tuple), rid)
	return errors.Wrap(err, "catalog: updating index on insert")
}

func (idx *IndexInfo) deleteTupleKey(tuple *Tuple) error {
	_, err := idx.Index.Delete(idx.keyFor(tuple))
	return errors.Wrap(err, "catalog: updating index on delete")
}

func (idx *IndexInfo) updateTupleKey(old, updated *Tuple) error {
	if err := idx.deleteTupleKey(old); err != nil {
		return err
	}
	return idx.insertTupleKey(updated, updated.Rid)
}

// Lookup returns the rid stored for the encoded key of vals in a unique
// index, used by index-scan point lookups and index-nested-loop joins. A
// buffer-pool fault while walking the tree reports ok=false rather than
// panicking; callers already treat a missed lookup as "no matching row".
func (idx *IndexInfo) Lookup(vals []*dbtype.Value) (transaction.RID, bool) {
	rid, ok, err := idx.Index.Find(EncodeKey(vals))
	if err != nil {
		return transaction.RID{}, false
	}
	return rid, ok
}
