// Package catalog tracks table and index metadata and gives tuples meaning
// against a schema. Grounded on catalog/schema.go, catalog/column.go and
// catalog/tuple.go, adapted from the byte-offset row layout there to a
// dbtype-driven column type instead of a bare uint8 kind code.
package catalog

import (
	"coredb/catalog/dbtype"

	"github.com/pkg/errors"
)

// Column names one field of a schema, its value type, and its inline byte
// offset within a tuple. Every supported dbtype is fixed or self-describing
// length, so no separate directory is kept; offsets are only correct for
// columns that come before any VarChar column (see NewSchema).
type Column struct {
	Name   string
	Type   dbtype.TypeID
	Offset uint32
}

func NewColumn(name string, typeID dbtype.TypeID) Column {
	return Column{Name: name, Type: typeID}
}

// Schema is the ordered set of columns a tuple is interpreted against.
type Schema interface {
	GetColumns() []Column
	GetColumn(idx int) *Column
	GetColIdx(name string) (int, error)
	Len() int
	// NullBitmapSize is the fixed-size null bitmap every tuple built against
	// this schema carries ahead of its column bytes, one bit per column.
	NullBitmapSize() int
}

type schemaImpl struct {
	columns   []Column
	bitmapLen uint32
}

func (s *schemaImpl) GetColumns() []Column { return s.columns }
func (s *schemaImpl) GetColumn(idx int) *Column { return &s.columns[idx] }
func (s *schemaImpl) Len() int { return len(s.columns) }
func (s *schemaImpl) NullBitmapSize() int { return int(s.bitmapLen) }

func (s *schemaImpl) GetColIdx(name string) (int, error) {
	for i, c := range s.columns {
		if c.Name == name {
			return i, nil
		}
	}
	return 0, errors.Errorf("catalog: no such column %q", name)
}

// NewSchema computes each column's offset assuming fixed-length columns,
// reserved after a leading null bitmap (one bit per column, ceil(n/8)
// bytes), and returns a Schema over them. Variable-length columns (VarChar)
// may only appear last, since their length is only known by reading their
// own length prefix at scan time.
func NewSchema(cols []Column) Schema {
	bitmapLen := uint32((len(cols) + 7) / 8)
	offset := bitmapLen
	for i := range cols {
		cols[i].Offset = offset
		offset += fixedSizeOf(cols[i].Type)
	}
	return &schemaImpl{columns: cols, bitmapLen: bitmapLen}
}

// fixedSizeOf returns a column type's byte width, or 0 for VarChar, whose
// actual width is only known by reading its own length prefix.
func fixedSizeOf(t dbtype.TypeID) uint32 {
	switch t.Kind {
	case dbtype.KindInteger:
		return 4
	case dbtype.KindFloat64:
		return 8
	case dbtype.KindBool:
		return 1
	case dbtype.KindFixedChar:
		return t.Size
	default:
		return 0
	}
}
