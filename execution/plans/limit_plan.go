package plans


// LimitPlanNode yields at most N of its child's tuples. The optimizer
// rewrites Limit(Sort(child)) into a single TopNPlanNode and leaves a
// LimitPlanNode over any other child unchanged; the executors package has
// no executor for LimitPlanNode.
type LimitPlanNode struct {
	BasePlanNode
	N int
}

func NewLimitPlanNode(child IPlanNode, n int) *LimitPlanNode {
	return &LimitPlanNode{BasePlanNode: BasePlanNode{OutSchema: child.GetOutSchema(), Children: []IPlanNode{child}}, N: n}
}

func (n *LimitPlanNode) GetType() PlanType       { return Limit }
func (n *LimitPlanNode) GetChildPlan() IPlanNode { return n.GetChildAt(0) }
