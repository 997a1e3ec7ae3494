package plans

import (
	"coredb/catalog"
	"coredb/execution/expressions"
)

// NestedIndexJoinPlanNode probes InnerIndexOID with a key built from the
// outer (left) tuple's outerKeyIdx column for each outer row, instead of
// scanning the whole inner table per outer row the way NestedLoopJoinPlanNode
// does. Grounded on the teacher's NestedLoopJoin plan/executor pair, adapted
// into a distinct plan node since the spec calls for both a table-scanning
// and an index-probing join operator.
type NestedIndexJoinPlanNode struct {
	BasePlanNode
	predicate   expressions.IExpression
	innerIndex  catalog.IndexOID
	outerKeyIdx int
	joinType    JoinType
}

func NewNestedIndexJoinPlanNode(outSchema catalog.Schema, pred expressions.IExpression, outer IPlanNode, innerIndex catalog.IndexOID, outerKeyIdx int, joinType JoinType) *NestedIndexJoinPlanNode {
	return &NestedIndexJoinPlanNode{
		BasePlanNode: BasePlanNode{OutSchema: outSchema, Children: []IPlanNode{outer}},
		predicate:    pred,
		innerIndex:   innerIndex,
		outerKeyIdx:  outerKeyIdx,
		joinType:     joinType,
	}
}

func (n *NestedIndexJoinPlanNode) GetType() PlanType                     { return NestedIndexJoin }
func (n *NestedIndexJoinPlanNode) GetPredicate() expressions.IExpression { return n.predicate }
func (n *NestedIndexJoinPlanNode) GetOuterPlan() IPlanNode               { return n.GetChildAt(0) }
func (n *NestedIndexJoinPlanNode) GetInnerIndexOID() catalog.IndexOID    { return n.innerIndex }
func (n *NestedIndexJoinPlanNode) GetOuterKeyColIdx() int                { return n.outerKeyIdx }
func (n *NestedIndexJoinPlanNode) GetJoinType() JoinType                 { return n.joinType }
