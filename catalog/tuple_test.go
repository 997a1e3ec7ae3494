package catalog

import (
	"testing"

	"coredb/catalog/dbtype"

	"github.com/stretchr/testify/require"
)

func TestTuple_NullBitmapRoundTripsThroughSchema(t *testing.T) {
	schema := NewSchema([]Column{
		NewColumn("id", dbtype.Integer()),
		NewColumn("score", dbtype.Float64()),
	})

	tuple, err := NewTupleWithSchema([]*dbtype.Value{
		dbtype.NewInt(7),
		dbtype.NewNull(dbtype.Float64()),
	}, schema)
	require.NoError(t, err)

	require.False(t, tuple.GetValue(schema, 0).IsNull())
	require.Equal(t, int32(7), tuple.GetValue(schema, 0).AsInterface())
	require.True(t, tuple.GetValue(schema, 1).IsNull())
}
