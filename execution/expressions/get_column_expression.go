package expressions

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
)

// GetColumnExpression reads one column of a tuple. TupleIdx selects which
// side of a join the column comes from when evaluated with EvalJoin (0 for
// the left input, 1 for the right).
type GetColumnExpression struct {
	BaseExpression
	ColIdx   int
	TupleIdx int
}

func NewGetColumnExpression(colIdx, tupleIdx int) *GetColumnExpression {
	return &GetColumnExpression{ColIdx: colIdx, TupleIdx: tupleIdx}
}

func (e *GetColumnExpression) Eval(t *catalog.Tuple, s catalog.Schema) *dbtype.Value {
	return t.GetValue(s, e.ColIdx)
}

func (e *GetColumnExpression) EvalJoin(lt *catalog.Tuple, ls catalog.Schema, rt *catalog.Tuple, rs catalog.Schema) *dbtype.Value {
	if e.TupleIdx == 0 {
		return lt.GetValue(ls, e.ColIdx)
	}
	return rt.GetValue(rs, e.ColIdx)
}
