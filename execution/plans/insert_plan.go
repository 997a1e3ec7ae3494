package plans

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
)

type InsertPlanNode struct {
	BasePlanNode
	tableOID catalog.TableOID
	values   [][]*dbtype.Value
}

func (n *InsertPlanNode) GetType() PlanType         { return Insert }
func (n *InsertPlanNode) IsRawInsert() bool         { return len(n.GetChildren()) == 0 }
func (n *InsertPlanNode) RawValuesAt(idx int) []*dbtype.Value { return n.values[idx] }
func (n *InsertPlanNode) RawValues() [][]*dbtype.Value        { return n.values }
func (n *InsertPlanNode) GetTableOID() catalog.TableOID       { return n.tableOID }

// NewRawInsertPlanNode creates a leaf insert node whose rows come from a
// literal list of values rather than a child executor.
func NewRawInsertPlanNode(values [][]*dbtype.Value, toid catalog.TableOID) *InsertPlanNode {
	return &InsertPlanNode{BasePlanNode: BasePlanNode{OutSchema: CountSchema()}, tableOID: toid, values: values}
}

// NewInsertPlanNode creates an insert node that pulls rows from child, e.g.
// INSERT INTO ... SELECT .... Its out schema is always the single-column
// insert count, not the child's row schema.
func NewInsertPlanNode(child IPlanNode, toid catalog.TableOID) *InsertPlanNode {
	return &InsertPlanNode{BasePlanNode: BasePlanNode{OutSchema: CountSchema(), Children: []IPlanNode{child}}, tableOID: toid}
}
