package plans

import (
	"coredb/catalog"
	"coredb/execution/expressions"
)

type AggregationType int

const (
	CountStar AggregationType = iota
	Count
	Sum
	Min
	Max
)

// AggregateTerm names one aggregate function applied to an expression over
// the child's tuples; CountStar ignores Expr.
type AggregateTerm struct {
	Type AggregationType
	Expr expressions.IExpression
}

// AggregationPlanNode groups its child's tuples by GroupBys and computes
// Aggregates over each group, yielding one tuple per distinct group-by key
// (or a single tuple summarizing the whole input when GroupBys is empty).
type AggregationPlanNode struct {
	BasePlanNode
	GroupBys   []expressions.IExpression
	Aggregates []AggregateTerm
}

func NewAggregationPlanNode(outSchema catalog.Schema, child IPlanNode, groupBys []expressions.IExpression, aggregates []AggregateTerm) *AggregationPlanNode {
	return &AggregationPlanNode{
		BasePlanNode: BasePlanNode{OutSchema: outSchema, Children: []IPlanNode{child}},
		GroupBys:     groupBys,
		Aggregates:   aggregates,
	}
}

func (n *AggregationPlanNode) GetType() PlanType     { return Aggregation }
func (n *AggregationPlanNode) GetChildPlan() IPlanNode { return n.GetChildAt(0) }
