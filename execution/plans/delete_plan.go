package plans

import "coredb/catalog"

// DeletePlanNode deletes every tuple its single child yields, identified by
// the rid Next fills in alongside each tuple.
type DeletePlanNode struct {
	BasePlanNode
	tableOID catalog.TableOID
}

// NewDeletePlanNode's out schema is always the single-column delete count,
// not child's row schema.
func NewDeletePlanNode(child IPlanNode, toid catalog.TableOID) *DeletePlanNode {
	return &DeletePlanNode{BasePlanNode: BasePlanNode{OutSchema: CountSchema(), Children: []IPlanNode{child}}, tableOID: toid}
}

func (n *DeletePlanNode) GetType() PlanType             { return Delete }
func (n *DeletePlanNode) GetTableOID() catalog.TableOID { return n.tableOID }
func (n *DeletePlanNode) GetChildPlan() IPlanNode       { return n.GetChildAt(0) }
