package plans

import (
	"coredb/catalog"
	"coredb/execution/expressions"
)

// OrderByTerm names one sort key and its direction.
type OrderByTerm struct {
	Expr expressions.IExpression
	Desc bool
}

// SortPlanNode fully materializes its child's output and yields it back in
// OrderBys order.
type SortPlanNode struct {
	BasePlanNode
	OrderBys []OrderByTerm
}

func NewSortPlanNode(outSchema catalog.Schema, child IPlanNode, orderBys []OrderByTerm) *SortPlanNode {
	return &SortPlanNode{BasePlanNode: BasePlanNode{OutSchema: outSchema, Children: []IPlanNode{child}}, OrderBys: orderBys}
}

func (n *SortPlanNode) GetType() PlanType       { return Sort }
func (n *SortPlanNode) GetChildPlan() IPlanNode { return n.GetChildAt(0) }
