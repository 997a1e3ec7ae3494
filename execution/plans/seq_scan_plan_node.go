package plans

import (
	"coredb/catalog"
	"coredb/execution/expressions"
)

type SeqScanPlanNode struct {
	BasePlanNode
	predicate expressions.IExpression
	tableOID  catalog.TableOID
}

func NewSeqScanPlanNode(outSchema catalog.Schema, pred expressions.IExpression, toid catalog.TableOID) *SeqScanPlanNode {
	return &SeqScanPlanNode{BasePlanNode: BasePlanNode{OutSchema: outSchema}, predicate: pred, tableOID: toid}
}

func (n *SeqScanPlanNode) GetType() PlanType                     { return SeqScan }
func (n *SeqScanPlanNode) GetPredicate() expressions.IExpression { return n.predicate }
func (n *SeqScanPlanNode) GetTableOID() catalog.TableOID         { return n.tableOID }
