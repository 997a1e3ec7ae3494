package catalog

import (
	"coredb/catalog/dbtype"
	"coredb/transaction"

	"github.com/pkg/errors"
)

// Tuple is a schema-less byte payload paired with the location it was read
// from or written to. Grounded on catalog/tuple.go's Tuple/GetValue, adapted
// to wrap a plain []byte instead of a disk-structures Row, since tuples now
// live in storage/heap pages.
type Tuple struct {
	Data []byte
	Rid  transaction.RID
}

// GetValue decodes the value stored at columnIdx according to schema. A
// column flagged null in the tuple's leading null bitmap is reported as a
// null Value of the column's type without reading its (zeroed) payload
// bytes.
func (t *Tuple) GetValue(schema Schema, columnIdx int) *dbtype.Value {
	col := schema.GetColumn(columnIdx)
	if columnIdx/8 < len(t.Data) && isNullBit(t.Data, columnIdx) {
		return dbtype.NewNull(col.Type)
	}
	if int(col.Offset) >= len(t.Data) {
		return nil
	}
	return dbtype.Deserialize(col.Type, t.Data[col.Offset:])
}

// NewTupleWithSchema serializes values in schema column order into a single
// packed payload, preceded by a null bitmap recording which values are SQL
// NULL.
func NewTupleWithSchema(values []*dbtype.Value, schema Schema) (*Tuple, error) {
	if len(values) != schema.Len() {
		return nil, errors.New("catalog: value count does not match schema column count")
	}
	data := make([]byte, schema.NullBitmapSize())
	for i, v := range values {
		if v.TypeID() != schema.GetColumn(i).Type {
			return nil, errors.Errorf("catalog: value %d has wrong type for column %q", i, schema.GetColumn(i).Name)
		}
		if v.IsNull() {
			data[i/8] |= 1 << uint(i%8)
		}
		buf := make([]byte, v.Size())
		v.Serialize(buf)
		data = append(data, buf...)
	}
	return &Tuple{Data: data}, nil
}

func isNullBit(data []byte, columnIdx int) bool {
	return data[columnIdx/8]&(1<<uint(columnIdx%8)) != 0
}
