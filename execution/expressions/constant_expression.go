package expressions

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
)

type ConstExpression struct {
	BaseExpression
	Val *dbtype.Value
}

func (e *ConstExpression) Eval(*catalog.Tuple, catalog.Schema) *dbtype.Value { return e.Val }

func (e *ConstExpression) EvalJoin(*catalog.Tuple, catalog.Schema, *catalog.Tuple, catalog.Schema) *dbtype.Value {
	return e.Val
}

func NewConstExpression(val *dbtype.Value) *ConstExpression {
	return &ConstExpression{Val: val}
}
