package plans

import (
	"coredb/catalog"
	"coredb/catalog/dbtype"
	"coredb/execution/expressions"
)

// IndexScanPlanNode probes an index either for a single equality match
// (Probe set) or for every key in [Min, Max) (Min/Max set, either may be
// nil for an open bound), folding the teacher's separate
// IndexScanPlanNode/IndexRangeScanPlanNode into one node since both walk
// the same catalog.IndexInfo and differ only in how many keys they visit.
type IndexScanPlanNode struct {
	BasePlanNode
	predicate expressions.IExpression
	indexOID  catalog.IndexOID
	probe     []*dbtype.Value
	min, max  []*dbtype.Value
}

func NewIndexPointScanPlanNode(outSchema catalog.Schema, pred expressions.IExpression, ioid catalog.IndexOID, probe []*dbtype.Value) *IndexScanPlanNode {
	return &IndexScanPlanNode{BasePlanNode: BasePlanNode{OutSchema: outSchema}, predicate: pred, indexOID: ioid, probe: probe}
}

func NewIndexRangeScanPlanNode(outSchema catalog.Schema, pred expressions.IExpression, ioid catalog.IndexOID, min, max []*dbtype.Value) *IndexScanPlanNode {
	return &IndexScanPlanNode{BasePlanNode: BasePlanNode{OutSchema: outSchema}, predicate: pred, indexOID: ioid, min: min, max: max}
}

func (n *IndexScanPlanNode) GetType() PlanType                     { return IndexScan }
func (n *IndexScanPlanNode) GetPredicate() expressions.IExpression { return n.predicate }
func (n *IndexScanPlanNode) GetIndexOID() catalog.IndexOID         { return n.indexOID }
func (n *IndexScanPlanNode) IsPointScan() bool                     { return n.probe != nil }
func (n *IndexScanPlanNode) GetProbeValues() []*dbtype.Value       { return n.probe }
func (n *IndexScanPlanNode) GetRange() (min, max []*dbtype.Value)  { return n.min, n.max }
