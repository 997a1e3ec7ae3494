// Package expressions implements the small expression tree executors
// evaluate against a tuple: column references, constants, and comparisons,
// composed with logical AND for compound predicates. Grounded on
// execution/expressions (base_expression.go, constant_expression.go,
// get_column_expression.go, comparison_expression.go).
package expressions

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
)

// IExpression is a node in an expression tree, evaluated against a single
// tuple. JoinExpression additionally supports evaluation against a pair of
// tuples from a join's two input schemas.
type IExpression interface {
	Eval(t *catalog.Tuple, s catalog.Schema) *dbtype.Value
	GetChildAt(idx int) IExpression
	GetChildren() []IExpression
}

// JoinExpression is implemented by expressions that can be evaluated
// against a join's left and right tuples without first concatenating them
// into one combined tuple.
type JoinExpression interface {
	EvalJoin(lt *catalog.Tuple, ls catalog.Schema, rt *catalog.Tuple, rs catalog.Schema) *dbtype.Value
}

// BaseExpression implements the tree traversal methods every concrete
// expression type embeds.
type BaseExpression struct {
	Children []IExpression
}

func (e *BaseExpression) GetChildAt(idx int) IExpression { return e.Children[idx] }
func (e *BaseExpression) GetChildren() []IExpression     { return e.Children }
