// Package optimizer rewrites a query plan tree into an equivalent, cheaper
// one before it is handed to the executor builder. There is no teacher
// source to adapt here since the copied repo has no query layer of its
// own; the pass is written in the same post-order tree-walk shape the
// B+ tree and lock manager use for their own recursive operations.
package optimizer

import "coredb/execution/plans"

// Optimize rewrites node and every plan in its subtree, returning the
// possibly-different root of the optimized tree. Children are rewritten
// before their parent so a rule matching on a parent/child pair always
// sees already-optimized children.
func Optimize(node plans.IPlanNode) plans.IPlanNode {
	if node == nil {
		return nil
	}

	children := node.GetChildren()
	for i, c := range children {
		children[i] = Optimize(c)
	}

	return applyRules(node)
}

func applyRules(node plans.IPlanNode) plans.IPlanNode {
	if rewritten := rewriteLimitSortToTopN(node); rewritten != nil {
		return rewritten
	}
	return node
}

// rewriteLimitSortToTopN turns Limit(Sort(child)) into TopN(child, ...),
// letting the executor keep only N rows in a bounded heap instead of
// materializing and fully sorting the child's entire output. Returns nil
// when node doesn't match the shape.
func rewriteLimitSortToTopN(node plans.IPlanNode) plans.IPlanNode {
	limit, ok := node.(*plans.LimitPlanNode)
	if !ok {
		return nil
	}
	sortNode, ok := limit.GetChildPlan().(*plans.SortPlanNode)
	if !ok {
		return nil
	}
	return plans.NewTopNPlanNode(limit.GetOutSchema(), sortNode.GetChildPlan(), sortNode.OrderBys, limit.N)
}
