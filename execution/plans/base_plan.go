// Package plans defines the query plan tree an executor tree is built from
// one-to-one. Grounded on execution/plans/base_plan.go and the sibling plan
// node files, with BasePlanNode.Children corrected to hold IPlanNode (the
// teacher's field type, []*BasePlanNode, didn't actually match what every
// constructor in the package assigned to it — []IPlanNode literals).
package plans

import "coredb/catalog"

type PlanType int

const (
	SeqScan PlanType = iota
	IndexScan
	Insert
	Delete
	Aggregation
	Limit
	Sort
	TopN
	NestedLoopJoin
	NestedIndexJoin
)

type IPlanNode interface {
	GetType() PlanType
	GetOutSchema() catalog.Schema
	GetChildren() []IPlanNode
}

type BasePlanNode struct {
	// OutSchema is the schema of the tuples this plan node yields.
	OutSchema catalog.Schema
	Children  []IPlanNode
}

func (n *BasePlanNode) GetChildAt(idx int) IPlanNode { return n.Children[idx] }
func (n *BasePlanNode) GetChildren() []IPlanNode     { return n.Children }
func (n *BasePlanNode) GetOutSchema() catalog.Schema { return n.OutSchema }
