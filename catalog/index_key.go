package catalog

import "coredb/catalog/dbtype"

// EncodeKey packs vals into a single string usable as a B+ tree index key.
// Fixed-width types (Integer, Float64, Bool, FixedChar) serialize to a
// constant number of order-preserving bytes, so concatenating them keeps
// column-major lexicographic ordering intact. VarChar embeds its own
// length prefix ahead of its bytes; that keeps equality lookups exact but
// means a VarChar column's ordering degrades once other rows encode a
// different length for it, so composite indexes that need correctly
// ordered range scans should put fixed-width columns first — recorded as a
// known scope limit rather than solved with a heavier order-preserving
// varint scheme.
func EncodeKey(vals []*dbtype.Value) string {
	var out []byte
	for _, v := range vals {
		buf := make([]byte, v.Size())
		v.Serialize(buf)
		out = append(out, buf...)
	}
	return string(out)
}

func valuesAt(t *Tuple, schema Schema, columnIndexes []int) []*dbtype.Value {
	vals := make([]*dbtype.Value, len(columnIndexes))
	for i, idx := range columnIndexes {
		vals[i] = t.GetValue(schema, idx)
	}
	return vals
}
