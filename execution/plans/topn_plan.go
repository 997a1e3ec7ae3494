package plans

import "coredb/catalog"

// TopNPlanNode yields the first N rows of its child in OrderBys order
// without materializing the full sorted input, the way LimitPlanNode
// stacked on SortPlanNode does. The optimizer's Limit(Sort)->TopN rule
// rewrites that stack into this node.
type TopNPlanNode struct {
	BasePlanNode
	OrderBys []OrderByTerm
	N        int
}

func NewTopNPlanNode(outSchema catalog.Schema, child IPlanNode, orderBys []OrderByTerm, n int) *TopNPlanNode {
	return &TopNPlanNode{BasePlanNode: BasePlanNode{OutSchema: outSchema, Children: []IPlanNode{child}}, OrderBys: orderBys, N: n}
}

func (n *TopNPlanNode) GetType() PlanType       { return TopN }
func (n *TopNPlanNode) GetChildPlan() IPlanNode { return n.GetChildAt(0) }
